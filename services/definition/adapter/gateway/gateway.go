// Package gateway fetches transaction metadata and data from a remote
// gateway HTTP endpoint for the definition loader.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/definition"
)

type txResponse struct {
	Id    string      `json:"id"`
	Owner string      `json:"owner"`
	Tags  []model.Tag `json:"tags"`
}

// Adapter implements definition.Source against baseURL + "/tx/{id}" and
// baseURL + "/tx/{id}/data".
type Adapter struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Adapter{baseURL: baseURL, httpClient: httpClient}
}

func (a *Adapter) GetTransaction(ctx context.Context, txId string) (definition.Transaction, error) {
	meta, err := a.getJSON(ctx, fmt.Sprintf("%s/tx/%s", a.baseURL, txId))
	if err != nil {
		return definition.Transaction{}, err
	}
	var tx txResponse
	if err := json.Unmarshal(meta, &tx); err != nil {
		return definition.Transaction{}, apperrors.NewNetworkError(200, errors.Wrap(err, "failed to decode transaction metadata"))
	}

	data, err := a.getBytes(ctx, fmt.Sprintf("%s/tx/%s/data", a.baseURL, txId))
	if err != nil {
		return definition.Transaction{}, err
	}

	return definition.Transaction{Id: tx.Id, OwnerAddress: tx.Owner, Tags: tx.Tags, Data: data}, nil
}

func (a *Adapter) getJSON(ctx context.Context, url string) ([]byte, error) {
	return a.getBytes(ctx, url)
}

func (a *Adapter) getBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build gateway request")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(0, errors.Wrap(err, "gateway request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewNetworkError(resp.StatusCode, errors.Errorf("gateway returned status %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError(resp.StatusCode, errors.Wrap(err, "failed to read gateway response"))
	}
	return body, nil
}
