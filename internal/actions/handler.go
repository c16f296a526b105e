package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/pkg/logger"
)

// Action names accepted by the handler
const (
	ActionGetConfig          = "getConfig"
	ActionSaveConfig         = "saveConfig"
	ActionUpsertFeed         = "upsertFeed"
	ActionRemoveFeed         = "removeFeed"
	ActionUpsertTopicMapping = "upsertTopicMapping"
	ActionRemoveTopicMapping = "removeTopicMapping"
	ActionProcessFeeds       = "processFeeds"
)

// ErrUnknownAction is returned for actions the handler does not know
var ErrUnknownAction = errors.New("Unknown action")

// Request is the operator action envelope. Payload holds the action's
// arguments, e.g. {"feedId": "..."} for removeFeed.
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is returned for every action
type Response struct {
	Success bool                     `json:"success"`
	Config  *models.AppConfig        `json:"config,omitempty"`
	Result  *models.ProcessingResult `json:"result,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// ConfigStore is the persisted operator configuration
type ConfigStore interface {
	Load(ctx context.Context) *models.AppConfig
	Save(ctx context.Context, cfg *models.AppConfig) error
	UpsertFeed(ctx context.Context, feed models.FeedSource) error
	RemoveFeed(ctx context.Context, id string) error
	UpsertTopicRoute(ctx context.Context, route models.TopicRoute) error
	RemoveTopicRoute(ctx context.Context, topic string) error
}

// Processor runs the publication pipeline
type Processor interface {
	ProcessAllFeeds(ctx context.Context) *models.ProcessingResult
}

// Handler dispatches operator actions
type Handler struct {
	config    ConfigStore
	processor Processor
	log       *logger.Logger
}

// NewHandler creates a new action handler
func NewHandler(config ConfigStore, processor Processor, log *logger.Logger) *Handler {
	return &Handler{
		config:    config,
		processor: processor,
		log:       log.WithComponent("actions"),
	}
}

type saveConfigPayload struct {
	Config *models.AppConfig `json:"config"`
}

type upsertFeedPayload struct {
	Feed *models.FeedSource `json:"feed"`
}

type removeFeedPayload struct {
	FeedID string `json:"feedId"`
}

type upsertTopicMappingPayload struct {
	Mapping *models.TopicRoute `json:"mapping"`
}

type removeTopicMappingPayload struct {
	Topic string `json:"topic"`
}

// Handle executes a single action. Failures are reported in the response,
// never as a panic or a Go error.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("action", req.Action).Msg("Error in action handler")
			resp = Response{Error: fmt.Sprintf("%v", r)}
		}
	}()

	resp, err := h.dispatch(ctx, req)
	if err != nil {
		h.log.Error().Err(err).Str("action", req.Action).Msg("Error in action handler")
		return Response{Error: err.Error()}
	}
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req Request) (Response, error) {
	switch req.Action {
	case ActionGetConfig:
		return Response{Success: true, Config: h.config.Load(ctx)}, nil

	case ActionSaveConfig:
		var p saveConfigPayload
		if err := decodePayload(req, &p); err != nil {
			return Response{}, err
		}
		if p.Config == nil {
			return Response{}, errors.New("config is required")
		}
		return Response{Success: true}, h.config.Save(ctx, p.Config)

	case ActionUpsertFeed:
		var p upsertFeedPayload
		if err := decodePayload(req, &p); err != nil {
			return Response{}, err
		}
		if p.Feed == nil {
			return Response{}, errors.New("feed is required")
		}
		return Response{Success: true}, h.config.UpsertFeed(ctx, *p.Feed)

	case ActionRemoveFeed:
		var p removeFeedPayload
		if err := decodePayload(req, &p); err != nil {
			return Response{}, err
		}
		if p.FeedID == "" {
			return Response{}, errors.New("feedId is required")
		}
		return Response{Success: true}, h.config.RemoveFeed(ctx, p.FeedID)

	case ActionUpsertTopicMapping:
		var p upsertTopicMappingPayload
		if err := decodePayload(req, &p); err != nil {
			return Response{}, err
		}
		if p.Mapping == nil {
			return Response{}, errors.New("mapping is required")
		}
		return Response{Success: true}, h.config.UpsertTopicRoute(ctx, *p.Mapping)

	case ActionRemoveTopicMapping:
		var p removeTopicMappingPayload
		if err := decodePayload(req, &p); err != nil {
			return Response{}, err
		}
		if p.Topic == "" {
			return Response{}, errors.New("topic is required")
		}
		return Response{Success: true}, h.config.RemoveTopicRoute(ctx, p.Topic)

	case ActionProcessFeeds:
		return Response{Success: true, Result: h.processor.ProcessAllFeeds(ctx)}, nil

	default:
		return Response{}, ErrUnknownAction
	}
}

func decodePayload(req Request, dest any) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, dest); err != nil {
		return fmt.Errorf("invalid %s payload: %w", req.Action, err)
	}
	return nil
}
