package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSigner struct {
	url string
	err error
}

func (f *fakeSigner) ReadSASURL(blobRef string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url + blobRef, nil
}

func TestResolveProfileImageURL(t *testing.T) {
	svc := NewImageService(&fakeSigner{url: "https://acct.blob.core.windows.net/imgs/"})
	got := svc.ResolveProfileImageURL("users/u1/profile.jpg", "female")
	assert.Equal(t, "https://acct.blob.core.windows.net/imgs/users/u1/profile.jpg", got)
}

func TestResolveProfileImageURLEmptyRefFallsBack(t *testing.T) {
	svc := NewImageService(&fakeSigner{url: "https://x/"})
	assert.Equal(t, defaultImageMale, svc.ResolveProfileImageURL("", "male"))
	assert.Equal(t, defaultImageFemale, svc.ResolveProfileImageURL("", "female"))
	assert.Equal(t, defaultImageNeutral, svc.ResolveProfileImageURL("", ""))
}

func TestResolveProfileImageURLSigningFailureFallsBack(t *testing.T) {
	svc := NewImageService(&fakeSigner{err: errors.New("key rotated")})
	assert.Equal(t, defaultImageFemale, svc.ResolveProfileImageURL("users/u1/profile.jpg", "female"))
}

func TestDefaultImage(t *testing.T) {
	assert.Equal(t, defaultImageMale, DefaultImage("male"))
	assert.Equal(t, defaultImageFemale, DefaultImage("female"))
	assert.Equal(t, defaultImageNeutral, DefaultImage("other"))
}
