package store

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/contractguard/contractguard/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	putInput *s3.PutObjectInput
	body     string
}

func (m *mockS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.putInput = input
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func TestUploadSetsContentType(t *testing.T) {
	client := &mockS3{}
	ds := NewDocumentStore(client, "contracts-docs", logging.Default())

	key := ds.Key("user-1", "contract-1", "msa.pdf")
	require.NoError(t, ds.Upload(context.Background(), key, []byte("%PDF-1.7"), "application/pdf"))

	assert.Equal(t, "uploads/user-1/contract-1/msa.pdf", key)
	assert.Equal(t, "application/pdf", aws.ToString(client.putInput.ContentType))
	assert.Equal(t, key, aws.ToString(client.putInput.Key))
}

func TestDownloadReadsBody(t *testing.T) {
	client := &mockS3{body: "contract text"}
	ds := NewDocumentStore(client, "contracts-docs", logging.Default())

	data, err := ds.Download(context.Background(), "uploads/user-1/contract-1/msa.pdf")
	require.NoError(t, err)
	assert.Equal(t, "contract text", string(data))
}

func TestDocumentStoreValidation(t *testing.T) {
	ds := NewDocumentStore(&mockS3{}, "contracts-docs", logging.Default())

	require.Error(t, ds.Upload(context.Background(), "", nil, ""))
	_, err := ds.Download(context.Background(), "")
	require.Error(t, err)
}
