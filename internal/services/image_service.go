package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ReadURLSigner exchanges a permanent blob reference for a signed read
// URL. Implemented by storage.Signer.
type ReadURLSigner interface {
	ReadSASURL(blobRef string, expiry time.Duration) (string, error)
}

// Default profile images served when a user has no uploaded image or
// resolution fails.
const (
	defaultImageMale    = "img/default_profile_male.png"
	defaultImageFemale  = "img/default_profile_female.png"
	defaultImageNeutral = "img/default_profile_guest.png"
)

const readURLExpiry = 5 * time.Minute

// ImageService maps stored profile image references to short-lived
// signed read URLs. Resolution failures never propagate: listings get
// the default image and the failure is only logged.
type ImageService struct {
	signer ReadURLSigner
}

func NewImageService(signer ReadURLSigner) *ImageService {
	return &ImageService{signer: signer}
}

// DefaultImage returns the placeholder image for a gender.
func DefaultImage(gender string) string {
	switch gender {
	case "male":
		return defaultImageMale
	case "female":
		return defaultImageFemale
	default:
		return defaultImageNeutral
	}
}

// ResolveProfileImageURL returns a signed read URL for the stored
// reference, or the gender's default image if the reference is empty
// or signing fails.
func (s *ImageService) ResolveProfileImageURL(blobRef, gender string) string {
	if blobRef == "" || s.signer == nil {
		return DefaultImage(gender)
	}
	url, err := s.signer.ReadSASURL(blobRef, readURLExpiry)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"ref":   blobRef,
			"error": err,
		}).Warn("Failed to resolve profile image, using default")
		return DefaultImage(gender)
	}
	return url
}
