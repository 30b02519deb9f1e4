// Package gql is the native GQL loader: it queries a content-addressed
// network's GraphQL endpoint for transactions tagged as interactions and
// derives sort_key locally (the GQL schema exposes block height/id/ts but
// not a precomputed sort-key), per spec.md §4.1/§4.3.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/loader"
	"github.com/warp-contracts/weave-engine/sortkey"
)

const defaultPageSize = 100

const query = `query Interactions($contractId: String!, $after: String) {
  transactions(tags: [{ name: "Contract", values: [$contractId] }], after: $after, first: %d) {
    pageInfo { hasNextPage }
    edges {
      cursor
      node {
        id
        owner { address }
        tags { name value }
        block { height id timestamp }
      }
    }
  }
}`

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlNode struct {
	Id    string `json:"id"`
	Owner struct {
		Address string `json:"address"`
	} `json:"owner"`
	Tags  []model.Tag `json:"tags"`
	Block struct {
		Height    int64  `json:"height"`
		Id        string `json:"id"`
		Timestamp int64  `json:"timestamp"`
	} `json:"block"`
}

type gqlResponse struct {
	Data struct {
		Transactions struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Edges []struct {
				Cursor string  `json:"cursor"`
				Node   gqlNode `json:"node"`
			} `json:"edges"`
		} `json:"transactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Adapter queries endpoint for a contract's transactions and assigns
// each one a sort-key locally via the sortkey package.
type Adapter struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, httpClient *http.Client) *Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Adapter{endpoint: endpoint, httpClient: httpClient}
}

func (a *Adapter) Load(ctx context.Context, contract string, from string, to string, opts loader.Options) ([]model.Interaction, error) {
	var all []model.Interaction
	after := ""

	for {
		resp, err := a.fetchPage(ctx, contract, after)
		if err != nil {
			return nil, err
		}
		if len(resp.Errors) > 0 {
			return nil, apperrors.NewNetworkError(200, errors.Errorf("gql endpoint returned errors: %s", resp.Errors[0].Message))
		}

		for _, edge := range resp.Data.Transactions.Edges {
			all = append(all, nodeToInteraction(edge.Node))
			after = edge.Cursor
		}

		if !resp.Data.Transactions.PageInfo.HasNextPage {
			break
		}
	}

	return loader.Filter(sortkey.Sort(all), from, to, opts), nil
}

func nodeToInteraction(node gqlNode) model.Interaction {
	i := model.Interaction{
		Id:           node.Id,
		OwnerAddress: node.Owner.Address,
		Tags:         node.Tags,
		Block: model.Block{
			Height:    node.Block.Height,
			Id:        node.Block.Id,
			Timestamp: node.Block.Timestamp,
		},
	}
	i.SortKey = sortkey.For(i)
	return i
}

func (a *Adapter) fetchPage(ctx context.Context, contract string, after string) (gqlResponse, error) {
	var vars map[string]interface{}
	if after == "" {
		vars = map[string]interface{}{"contractId": contract, "after": nil}
	} else {
		vars = map[string]interface{}{"contractId": contract, "after": after}
	}

	body, err := json.Marshal(gqlRequest{Query: fmt.Sprintf(query, defaultPageSize), Variables: vars})
	if err != nil {
		return gqlResponse{}, errors.Wrap(err, "failed to encode gql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return gqlResponse{}, errors.Wrap(err, "failed to build gql request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return gqlResponse{}, apperrors.NewNetworkError(0, errors.Wrap(err, "gql request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gqlResponse{}, apperrors.NewNetworkError(resp.StatusCode, errors.Errorf("gql endpoint returned status %d", resp.StatusCode))
	}

	var out gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return gqlResponse{}, apperrors.NewNetworkError(resp.StatusCode, errors.Wrap(err, "failed to decode gql response"))
	}
	return out, nil
}
