// Package gateway is the remote-gateway Loader: a paginated HTTP fetch
// against a contract-interactions endpoint, merging pages client-side and
// applying the confirmation/source filters locally so the same filtering
// logic covers both gateway and GQL backends.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/loader"
)

const defaultPageSize = 500

type page struct {
	Interactions []model.Interaction `json:"interactions"`
	HasMore      bool                 `json:"hasMore"`
	Cursor       string               `json:"cursor"`
}

// Adapter fetches interactions from a gateway HTTP endpoint of the form
// baseURL + "?contractId=...&from=...&to=...&limit=...&cursor=...",
// following the response's cursor while hasMore is set. It sends no
// page-number parameter and does not read a page count from the response.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

func New(baseURL string, httpClient *http.Client) *Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Adapter{baseURL: baseURL, httpClient: httpClient, pageSize: defaultPageSize}
}

func (a *Adapter) Load(ctx context.Context, contract string, from string, to string, opts loader.Options) ([]model.Interaction, error) {
	var all []model.Interaction
	cursor := ""

	for {
		query := url.Values{}
		query.Set("contractId", contract)
		if from != "" {
			query.Set("from", from)
		}
		if to != "" {
			query.Set("to", to)
		}
		query.Set("limit", fmt.Sprintf("%d", a.pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		p, err := a.fetchPage(ctx, query)
		if err != nil {
			return nil, err
		}

		for _, interaction := range p.Interactions {
			all = append(all, interaction)
		}

		if !p.HasMore || p.Cursor == "" {
			break
		}
		cursor = p.Cursor
	}

	return loader.Filter(all, from, to, opts), nil
}

func (a *Adapter) fetchPage(ctx context.Context, query url.Values) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return page{}, errors.Wrap(err, "failed to build gateway request")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return page{}, apperrors.NewNetworkError(0, errors.Wrap(err, "gateway request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page{}, apperrors.NewNetworkError(resp.StatusCode, errors.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, apperrors.NewNetworkError(resp.StatusCode, errors.Wrap(err, "failed to decode gateway response"))
	}
	return p, nil
}

