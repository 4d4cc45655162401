package images

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const maxImageSize = 5 * 1024 * 1024 // 5 MB

var (
	// ErrEmptyImage is returned when an upload has no data.
	ErrEmptyImage = errors.New("image data is empty")
	// ErrImageTooLarge is returned when an upload exceeds the size cap.
	ErrImageTooLarge = errors.New("image exceeds the 5 MB limit")
	// ErrUnsupportedImageType is returned for non-image content types.
	ErrUnsupportedImageType = errors.New("unsupported image type")
	// ErrImageNotFound is returned when no image is stored for a card.
	ErrImageNotFound = errors.New("image not found")
)

// allowedTypes is the content-type allowlist for card images.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageMeta describes a stored card image.
type ImageMeta struct {
	CardID      uint      `json:"card_id"`
	Size        uint64    `json:"size"`
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service validates and stores card images. One image per card; uploading
// again replaces the previous one.
type Service struct {
	store ObjectStore
}

// NewService creates a new image service.
func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// Upload validates and stores an image for a card.
func (s *Service) Upload(ctx context.Context, cardID uint, data []byte, contentType string) (*ImageMeta, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > maxImageSize {
		return nil, ErrImageTooLarge
	}
	if !allowedTypes[contentType] {
		return nil, ErrUnsupportedImageType
	}

	info, err := s.store.Put(ctx, objectName(cardID), data, contentType)
	if err != nil {
		return nil, err
	}

	return &ImageMeta{
		CardID:      cardID,
		Size:        info.Size,
		ContentType: info.ContentType,
		UpdatedAt:   info.ModTime,
	}, nil
}

// Get retrieves a card's image.
func (s *Service) Get(ctx context.Context, cardID uint) ([]byte, *ImageMeta, error) {
	data, info, err := s.store.Get(ctx, objectName(cardID))
	if err != nil {
		return nil, nil, ErrImageNotFound
	}

	return data, &ImageMeta{
		CardID:      cardID,
		Size:        info.Size,
		ContentType: info.ContentType,
		UpdatedAt:   info.ModTime,
	}, nil
}

// Delete removes a card's image. Deleting a missing image is not an error.
func (s *Service) Delete(ctx context.Context, cardID uint) error {
	if err := s.store.Delete(ctx, objectName(cardID)); err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// objectName keys images by card id.
func objectName(cardID uint) string {
	return fmt.Sprintf("card-%d", cardID)
}
