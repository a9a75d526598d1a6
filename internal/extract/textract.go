// Package extract pulls plain text out of uploaded contract documents via
// the Textract async job API.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/contractguard/contractguard/pkg/logging"
)

// ErrExtractionFailed wraps any terminal extraction failure. It is fatal for
// the contract: the caller sets status ERROR.
var ErrExtractionFailed = errors.New("extract: document extraction failed")

type textractAPI interface {
	StartDocumentTextDetection(context.Context, *textract.StartDocumentTextDetectionInput, ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(context.Context, *textract.GetDocumentTextDetectionInput, ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

// Result is the assembled output of one extraction job.
type Result struct {
	FullText  string
	WordCount int
	PageCount int
}

// Extractor runs Textract text-detection jobs against documents in S3.
type Extractor struct {
	client       textractAPI
	pollInterval time.Duration
	timeout      time.Duration
	logger       *logging.Logger
}

// NewExtractor builds an Extractor. pollInterval and timeout fall back to 5s
// and 5m when unset.
func NewExtractor(client textractAPI, pollInterval, timeout time.Duration, logger *logging.Logger) *Extractor {
	if client == nil {
		panic("extract: textract client cannot be nil")
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{client: client, pollInterval: pollInterval, timeout: timeout, logger: logger}
}

// Extract submits a text-detection job for the S3 object and polls until it
// succeeds, fails, or the timeout elapses. Paginated LINE blocks are joined
// with newlines in page order.
func (e *Extractor) Extract(ctx context.Context, bucket, key string) (Result, error) {
	if bucket == "" || key == "" {
		return Result{}, fmt.Errorf("extract: bucket and key required")
	}

	start, err := e.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("extract: failed to start job for s3://%s/%s: %w", bucket, key, errors.Join(ErrExtractionFailed, err))
	}
	jobID := aws.ToString(start.JobId)
	e.logger.Info("started extraction job", "job_id", jobID, "bucket", bucket, "key", key)

	blocks, err := e.poll(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	return assemble(blocks), nil
}

// poll waits for the job and collects every page of blocks.
func (e *Extractor) poll(ctx context.Context, jobID string) ([]types.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		out, err := e.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return nil, fmt.Errorf("extract: failed to poll job %s: %w", jobID, errors.Join(ErrExtractionFailed, err))
		}

		switch out.JobStatus {
		case types.JobStatusSucceeded:
			return e.collect(ctx, jobID, out)
		case types.JobStatusFailed:
			msg := aws.ToString(out.StatusMessage)
			return nil, fmt.Errorf("extract: job %s failed: %s: %w", jobID, msg, ErrExtractionFailed)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("extract: job %s timed out: %w", jobID, errors.Join(ErrExtractionFailed, ctx.Err()))
		case <-ticker.C:
		}
	}
}

// collect follows NextToken pagination starting from the succeeded response.
func (e *Extractor) collect(ctx context.Context, jobID string, first *textract.GetDocumentTextDetectionOutput) ([]types.Block, error) {
	blocks := first.Blocks
	next := first.NextToken
	for next != nil {
		out, err := e.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("extract: failed to page job %s results: %w", jobID, errors.Join(ErrExtractionFailed, err))
		}
		blocks = append(blocks, out.Blocks...)
		next = out.NextToken
	}
	return blocks, nil
}

func assemble(blocks []types.Block) Result {
	var lines []string
	pages := make(map[int32]struct{})
	for _, block := range blocks {
		if block.Page != nil {
			pages[aws.ToInt32(block.Page)] = struct{}{}
		}
		if block.BlockType == types.BlockTypeLine {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	fullText := strings.Join(lines, "\n")
	return Result{
		FullText:  fullText,
		WordCount: len(strings.Fields(fullText)),
		PageCount: len(pages),
	}
}
