// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/repository/specification"
	"legal-assist-be/internal/repository/unitofwork"
	"legal-assist-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pgvector/pgvector-go"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedCaseMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Rebuilding embedding for CaseId: %s", payload.CaseId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	legalCase, err := uow.CaseRepository().FindOne(ctx, specification.ByID{ID: payload.CaseId})
	if err != nil {
		log.Printf("[ERROR] Failed to get case %s: %v", payload.CaseId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if legalCase == nil {
		log.Printf("[WARN] Case not found: %s", payload.CaseId)
		msg.Ack() // Case deleted? Ack.
		return
	}

	// Fold the most recent conversation into the document so similarity
	// reflects what the case is actually about, not just its title.
	msgs, err := uow.CaseMessageRepository().FindAll(ctx,
		specification.Filter("case_id", payload.CaseId),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 20, Offset: 0},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load messages for case %s: %v", payload.CaseId, err)
		msg.Nack()
		return
	}

	var transcript strings.Builder
	for i := len(msgs) - 1; i >= 0; i-- {
		transcript.WriteString(fmt.Sprintf("%s: %s\n", msgs[i].Role, msgs[i].Content))
	}

	document := fmt.Sprintf(`Case Title: %s
Jurisdiction: %s
Case Type: %s

%s

%s

Created At: %s`,
		legalCase.Title,
		legalCase.CountryCode,
		legalCase.CaseType,
		legalCase.Description,
		transcript.String(),
		legalCase.CreatedAt.Format(time.RFC3339),
	)

	res, err := cs.embeddingProvider.Generate(document, "RETRIEVAL_DOCUMENT")
	if err != nil {
		log.Printf("[ERROR] Failed to generate embedding for case %s: %v", payload.CaseId, err)
		msg.Nack()
		return
	}

	vector := pgvector.NewVector(res.Embedding.Values)
	if err := uow.CaseEmbeddingRepository().Upsert(ctx, legalCase.Id, document, vector); err != nil {
		log.Printf("[ERROR] Failed to upsert embedding for case %s: %v", payload.CaseId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Embedding refreshed for CaseId: %s", payload.CaseId)
	msg.Ack()
}
