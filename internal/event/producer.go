package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
	pkgkafka "github.com/yogeshdgrg/BR-Dashboard/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from the dashboard backend.
const SourceDashboard = "br-dashboard"

// ProductEventData is the payload carried by product created/updated events.
type ProductEventData struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Sizes       []string              `json:"sizes"`
	Feature     []string              `json:"feature"`
	IsFeatured  bool                  `json:"isFeatured"`
	Images      []domain.ImageRef     `json:"images"`
	Colors      []domain.ColorVariant `json:"colors"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Publisher is the interface services use to emit catalog events. It exists so
// service tests can substitute a mock publisher.
type Publisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, id string) error
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the dashboard backend.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func productData(p *domain.Product) ProductEventData {
	return ProductEventData{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Sizes:       p.Sizes,
		Feature:     p.Feature,
		IsFeatured:  p.IsFeatured,
		Images:      p.Images,
		Colors:      p.Colors,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	event, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, AggregateTypeProduct, SourceDashboard, productData(product))
	if err != nil {
		return fmt.Errorf("create product.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductCreated, event); err != nil {
		return fmt.Errorf("publish product.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.created event",
		slog.String("product_id", product.ID),
	)

	return nil
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	event, err := pkgkafka.NewEvent(TopicProductUpdated, product.ID, AggregateTypeProduct, SourceDashboard, productData(product))
	if err != nil {
		return fmt.Errorf("create product.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductUpdated, event); err != nil {
		return fmt.Errorf("publish product.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.updated event",
		slog.String("product_id", product.ID),
	)

	return nil
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	event, err := pkgkafka.NewEvent(TopicProductDeleted, id, AggregateTypeProduct, SourceDashboard, ProductDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.deleted event",
		slog.String("product_id", id),
	)

	return nil
}
