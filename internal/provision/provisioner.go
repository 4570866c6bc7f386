package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/pkg/variables"
)

var (
	ErrRoomProvisionFailed  = errors.New("room provision failed")
	ErrRoomValidationFailed = errors.New("room validation failed")
	ErrNoMediaBackend       = errors.New("media tokens require an external provisioner")
)

type RoomMetadata struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// Provisioner allocates and validates room identifiers against the
// conferencing backend. Callers must treat any error as "nothing happened":
// local state is mutated only after a call returns successfully.
type Provisioner interface {
	ProvisionRoom(ctx context.Context, meta RoomMetadata) (string, error)
	ValidateRoom(ctx context.Context, roomID string) (bool, error)
	MintMediaToken(ctx context.Context, roomID, identity string) (string, error)
}

type apiProvisioner struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

type provisionRoomResponse struct {
	RoomID string `json:"roomId"`
}

type mintTokenRequest struct {
	Identity string `json:"identity"`
}

type mintTokenResponse struct {
	Token string `json:"token"`
}

func (p *apiProvisioner) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, &payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)
	return req, nil
}

func (p *apiProvisioner) ProvisionRoom(ctx context.Context, meta RoomMetadata) (string, error) {
	req, err := p.newRequest(ctx, http.MethodPost, "/rooms", meta)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRoomProvisionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: unexpected status %d", ErrRoomProvisionFailed, resp.StatusCode)
	}

	var result provisionRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %s", ErrRoomProvisionFailed, err)
	}
	if result.RoomID == "" {
		return "", fmt.Errorf("%w: empty room id", ErrRoomProvisionFailed)
	}
	return result.RoomID, nil
}

func (p *apiProvisioner) ValidateRoom(ctx context.Context, roomID string) (bool, error) {
	req, err := p.newRequest(ctx, http.MethodGet, "/rooms/"+roomID, nil)
	if err != nil {
		return false, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrRoomValidationFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected status %d", ErrRoomValidationFailed, resp.StatusCode)
	}
}

func (p *apiProvisioner) MintMediaToken(ctx context.Context, roomID, identity string) (string, error) {
	req, err := p.newRequest(ctx, http.MethodPost, "/rooms/"+roomID+"/tokens", &mintTokenRequest{
		Identity: identity,
	})
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("mint media token: unexpected status %d", resp.StatusCode)
	}

	var result mintTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// localProvisioner generates short room ids locally when no conferencing
// backend is configured. Every room id is considered valid.
type localProvisioner struct{}

func (localProvisioner) ProvisionRoom(context.Context, RoomMetadata) (string, error) {
	return ShortRoomID(roomIDLength)
}

func (localProvisioner) ValidateRoom(context.Context, string) (bool, error) {
	return true, nil
}

func (localProvisioner) MintMediaToken(context.Context, string, string) (string, error) {
	return "", ErrNoMediaBackend
}

func NewLocalProvisioner() Provisioner {
	return localProvisioner{}
}

type NewProvisioner_Params struct {
	fx.In

	Logger *slog.Logger
}

func NewProvisioner(params NewProvisioner_Params) Provisioner {
	baseURL := variables.Env(variables.PROVISION_API_URL_NAME, variables.PROVISION_API_URL_DEFAULT)
	if baseURL == "" {
		params.Logger.Info("provisioner: using local room ids")
		return NewLocalProvisioner()
	}

	return &apiProvisioner{
		baseURL: baseURL,
		token:   variables.Env(variables.PROVISION_API_TOKEN_NAME, variables.PROVISION_API_TOKEN_DEFAULT),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  params.Logger,
	}
}
