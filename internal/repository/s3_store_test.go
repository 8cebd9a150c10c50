package repository

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects  map[string]string
	getErr   error
	putErr   error
	lastGet  *s3.GetObjectInput
	lastPut  *s3.PutObjectInput
	putBody  string
	putCalls int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastGet = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	f.putCalls++
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = string(b)
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[*in.Key] = f.putBody
	return &s3.PutObjectOutput{}, nil
}

func mustNewS3Store(t *testing.T, api *fakeS3) *S3Store {
	t.Helper()
	s, err := NewS3Store(api, "data-bucket-123-us-east-1")
	require.NoError(t, err)
	return s
}

func TestNewS3Store_Validates(t *testing.T) {
	_, err := NewS3Store(nil, "bucket")
	require.Error(t, err)

	_, err = NewS3Store(&fakeS3{}, " ")
	require.Error(t, err)
}

func TestS3Store_GetHappyPath(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"orders/o-1.json": `{"order_id":"o-1"}`}}
	s := mustNewS3Store(t, api)

	body, err := s.Get(context.Background(), "orders/o-1.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"order_id":"o-1"}`, string(body))
	require.Equal(t, "data-bucket-123-us-east-1", *api.lastGet.Bucket)
}

func TestS3Store_GetNoSuchKey(t *testing.T) {
	s := mustNewS3Store(t, &fakeS3{})
	_, err := s.Get(context.Background(), "orders/missing.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_GetGenericNotFoundCode(t *testing.T) {
	api := &fakeS3{getErr: &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}}
	s := mustNewS3Store(t, api)
	_, err := s.Get(context.Background(), "orders/missing.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_GetOtherError(t *testing.T) {
	api := &fakeS3{getErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	s := mustNewS3Store(t, api)
	_, err := s.Get(context.Background(), "orders/o-1.json")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "AccessDenied")
}

func TestS3Store_Put(t *testing.T) {
	api := &fakeS3{}
	s := mustNewS3Store(t, api)

	require.NoError(t, s.Put(context.Background(), "orders/o-1.json", []byte(`{"a":"b"}`)))
	require.Equal(t, "orders/o-1.json", *api.lastPut.Key)
	require.Equal(t, "application/json", *api.lastPut.ContentType)
	require.Equal(t, `{"a":"b"}`, api.putBody)
}

func TestS3Store_PutError(t *testing.T) {
	s := mustNewS3Store(t, &fakeS3{putErr: errors.New("boom")})
	err := s.Put(context.Background(), "orders/o-1.json", []byte(`{}`))
	require.ErrorContains(t, err, "boom")
}
