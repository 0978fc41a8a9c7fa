// Package storage issues time-limited SAS URLs for the Azure blob
// container holding profile images. Blobs themselves are uploaded
// directly by clients; the service only signs.
package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// Signer produces shared-key SAS tokens for a single container.
type Signer struct {
	accountName string
	container   string
	credential  *azblob.SharedKeyCredential
}

// NewSigner builds a Signer from account credentials.
func NewSigner(accountName, accountKey, container string) (*Signer, error) {
	if accountName == "" || accountKey == "" || container == "" {
		return nil, fmt.Errorf("azure storage account name, key and container are required")
	}
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build azure credential: %v", err)
	}
	return &Signer{
		accountName: accountName,
		container:   container,
		credential:  credential,
	}, nil
}

// BlobURL returns the permanent (unsigned) URL of a blob.
func (s *Signer) BlobURL(blobName string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.accountName, s.container, blobName)
}

// ReadSAS signs a short-lived read token for the blob.
func (s *Signer) ReadSAS(blobName string, expiry time.Duration) (string, error) {
	return s.sign(blobName, sas.BlobPermissions{Read: true}, "", expiry)
}

// WriteSAS signs a short-lived create/write token for the blob. A
// non-empty contentType is signed into the token so downloads through
// it carry that Content-Type.
func (s *Signer) WriteSAS(blobName, contentType string, expiry time.Duration) (string, error) {
	return s.sign(blobName, sas.BlobPermissions{Create: true, Write: true}, contentType, expiry)
}

// ReadSASURL exchanges a permanent blob reference (a full blob URL or a
// bare blob name) for a signed read URL.
func (s *Signer) ReadSASURL(blobRef string, expiry time.Duration) (string, error) {
	blobName, err := s.blobNameFromRef(blobRef)
	if err != nil {
		return "", err
	}
	token, err := s.ReadSAS(blobName, expiry)
	if err != nil {
		return "", err
	}
	return s.BlobURL(blobName) + "?" + token, nil
}

func (s *Signer) sign(blobName string, permissions sas.BlobPermissions, contentType string, expiry time.Duration) (string, error) {
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     time.Now().UTC().Add(-10 * time.Second),
		ExpiryTime:    time.Now().UTC().Add(expiry),
		Permissions:   permissions.String(),
		ContainerName: s.container,
		BlobName:      blobName,
		ContentType:   contentType,
	}
	params, err := values.SignWithSharedKey(s.credential)
	if err != nil {
		return "", fmt.Errorf("failed to sign SAS for %s: %v", blobName, err)
	}
	return params.Encode(), nil
}

// blobNameFromRef accepts either a bare blob name ("users/x/y.jpg") or
// a full blob URL and returns the blob name within the container.
func (s *Signer) blobNameFromRef(ref string) (string, error) {
	if !strings.Contains(ref, "://") {
		return ref, nil
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid blob reference %q: %v", ref, err)
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	if !strings.HasPrefix(path, s.container+"/") {
		return "", fmt.Errorf("blob reference %q is not in container %s", ref, s.container)
	}
	return strings.TrimPrefix(path, s.container+"/"), nil
}
