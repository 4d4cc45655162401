package images

import (
	"context"
	"log"
	"os"

	"github.com/go-monolith/mono"
)

// ImagesModule stores card images in NATS JetStream. When NATS is
// unreachable at startup the module comes up without storage and image
// endpoints report the backend as unavailable.
type ImagesModule struct {
	store   *JetStreamObjectStore
	service *Service
	natsURL string
	bucket  string
}

// Compile-time interface checks.
var _ mono.Module = (*ImagesModule)(nil)
var _ mono.HealthCheckableModule = (*ImagesModule)(nil)

// NewModule creates a new ImagesModule.
func NewModule() *ImagesModule {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	bucket := os.Getenv("IMAGES_BUCKET")
	if bucket == "" {
		bucket = "card-images"
	}
	return &ImagesModule{
		natsURL: natsURL,
		bucket:  bucket,
	}
}

// Name returns the module name.
func (m *ImagesModule) Name() string {
	return "images"
}

// Start connects to NATS JetStream and binds the image bucket.
func (m *ImagesModule) Start(ctx context.Context) error {
	store, err := NewJetStreamObjectStore(m.natsURL, m.bucket)
	if err != nil {
		log.Printf("[images] NATS unavailable at %s, image storage disabled: %v", m.natsURL, err)
		return nil
	}

	if err := store.Init(ctx); err != nil {
		store.Close()
		log.Printf("[images] object store init failed, image storage disabled: %v", err)
		return nil
	}

	m.store = store
	m.service = NewService(store)

	log.Printf("[images] Module started (NATS: %s, bucket: %s)", m.natsURL, m.bucket)
	return nil
}

// Stop shuts down the module.
func (m *ImagesModule) Stop(_ context.Context) error {
	if m.store != nil {
		m.store.Close()
	}
	log.Println("[images] Module stopped")
	return nil
}

// Health returns the health status of the module. Disabled storage is
// reported healthy: cards work without images.
func (m *ImagesModule) Health(_ context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "image storage disabled",
		}
	}

	if !m.store.IsConnected() {
		return mono.HealthStatus{
			Healthy: false,
			Message: "NATS disconnected",
			Details: map[string]any{
				"nats_url": m.natsURL,
				"bucket":   m.bucket,
			},
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"nats_url": m.natsURL,
			"bucket":   m.bucket,
		},
	}
}

// GetService returns the image service, or nil when storage is disabled.
func (m *ImagesModule) GetService() *Service {
	return m.service
}
