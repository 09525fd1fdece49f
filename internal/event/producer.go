package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/logger"
)

const (
	AggregateTypeProduct = "product"
	Source               = "catalog-service"
)

// Product event topics.
var (
	TopicProductCreated = pkgkafka.Topic(AggregateTypeProduct, "created")
	TopicProductUpdated = pkgkafka.Topic(AggregateTypeProduct, "updated")
	TopicProductDeleted = pkgkafka.Topic(AggregateTypeProduct, "deleted")
)

// ProductData is the payload of product.created and product.updated.
type ProductData struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Slug   string          `json:"slug"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Gender string          `json:"gender"`
	Sizes  []string        `json:"sizes"`
	Tags   []string        `json:"tags"`
	Images []string        `json:"images"`
	UserID *string         `json:"user_id,omitempty"`
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Publisher is the part of the Kafka producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes product domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a product event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func productData(d *domain.ProductDetail) ProductData {
	return ProductData{
		ID:     d.ID,
		Title:  d.Title,
		Slug:   d.Slug,
		Price:  d.Price,
		Stock:  d.Stock,
		Gender: string(d.Gender),
		Sizes:  d.Sizes,
		Tags:   d.Tags,
		Images: d.Images,
		UserID: d.UserID,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, d *domain.ProductDetail) error {
	return p.publish(ctx, TopicProductCreated, d.ID, productData(d))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, d *domain.ProductDetail) error {
	return p.publish(ctx, TopicProductUpdated, d.ID, productData(d))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, id, ProductDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, productID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, productID, AggregateTypeProduct, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}
	if uid := logger.UserIDFromContext(ctx); uid != "" {
		evt.WithMetadata("user_id", uid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.String("product_id", productID),
	)
	return nil
}

// NoopProducer discards events. It is used when no brokers are configured.
type NoopProducer struct{}

func (NoopProducer) PublishProductCreated(context.Context, *domain.ProductDetail) error { return nil }
func (NoopProducer) PublishProductUpdated(context.Context, *domain.ProductDetail) error { return nil }
func (NoopProducer) PublishProductDeleted(context.Context, string) error               { return nil }
