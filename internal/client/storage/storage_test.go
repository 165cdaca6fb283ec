package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	body    string
	putErr  error
	delErr  error
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	if in.Body != nil {
		b, _ := io.ReadAll(in.Body)
		f.body = string(b)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.delErr
}

func stubAWS(t *testing.T, api objectAPI, check func(lo awsconfig.LoadOptions, o s3.Options)) {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		if check != nil {
			check(lo, o)
		}
		return api
	}
}

func TestNewS3_AppliesOptions(t *testing.T) {
	var checked bool
	stubAWS(t, &fakeAPI{}, func(lo awsconfig.LoadOptions, o s3.Options) {
		checked = true
		assert.Equal(t, "af-south-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		require.NotNil(t, o.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *o.BaseEndpoint)
		assert.True(t, o.UsePathStyle)
	})

	s, err := NewS3(context.Background(), Options{
		Endpoint:     "http://127.0.0.1:9000",
		Region:       "af-south-1",
		Bucket:       "profile-pictures",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.True(t, checked)
	assert.Equal(t, "http://127.0.0.1:9000/profile-pictures/u-1/1700000000000-me.png", s.PublicURL("u-1/1700000000000-me.png"))
}

func TestNewS3_LoadConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3(context.Background(), Options{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load aws config")
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Options{})
	require.Error(t, err)
}

func TestS3_PublicURL_EscapesSegments(t *testing.T) {
	stubAWS(t, &fakeAPI{}, nil)
	s, err := NewS3(context.Background(), Options{Bucket: "b", PublicURL: "https://cdn.example.com/public/b/"})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/public/b/u-1/1-my%20photo.jpg", s.PublicURL("u-1/1-my photo.jpg"))
}

func TestS3_UploadAndDelete(t *testing.T) {
	api := &fakeAPI{}
	stubAWS(t, api, nil)
	s, err := NewS3(context.Background(), Options{Bucket: "profile-pictures"})
	require.NoError(t, err)

	require.NoError(t, s.Upload(context.Background(), "u-1/1-a.png", "image/png", strings.NewReader("png")))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "profile-pictures", aws.ToString(api.puts[0].Bucket))
	assert.Equal(t, "u-1/1-a.png", aws.ToString(api.puts[0].Key))
	assert.Equal(t, "image/png", aws.ToString(api.puts[0].ContentType))
	assert.Equal(t, "png", api.body)

	require.NoError(t, s.Delete(context.Background(), "u-1/1-a.png"))
	require.Len(t, api.deletes, 1)
	assert.Equal(t, "u-1/1-a.png", aws.ToString(api.deletes[0].Key))
}

func TestS3_UploadError(t *testing.T) {
	api := &fakeAPI{putErr: errors.New("denied")}
	stubAWS(t, api, nil)
	s, err := NewS3(context.Background(), Options{Bucket: "b"})
	require.NoError(t, err)

	err = s.Upload(context.Background(), "k", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Nil(t, api.puts[0].ContentType)
}
