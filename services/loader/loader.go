// Package loader fetches the interaction stream for a contract,
// implementing spec.md §4.3: a (from, to] window over sort-key order,
// with a remote-gateway and a native-GQL backend and a caching wrapper
// that both implementations share.
package loader

import (
	"context"

	"github.com/warp-contracts/weave-engine/model"
)

type ConfirmationFilter string

const (
	ConfirmationFilterConfirmed    ConfirmationFilter = "confirmed"
	ConfirmationFilterNotCorrupted ConfirmationFilter = "not_corrupted"
	ConfirmationFilterAny          ConfirmationFilter = "any"
)

type SourceFilter string

const (
	SourceFilterNative    SourceFilter = "native"
	SourceFilterSequencer SourceFilter = "sequencer"
	SourceFilterAny       SourceFilter = "any"
)

type Options struct {
	Confirmation ConfirmationFilter
	Source       SourceFilter
}

func DefaultOptions() Options {
	return Options{Confirmation: ConfirmationFilterNotCorrupted, Source: SourceFilterAny}
}

// Loader returns interactions for contract strictly after from and up to
// and including to (either bound may be the zero value, meaning
// unbounded). Implementations must fail with an *apperrors.NetworkError
// rather than returning a partial list.
type Loader interface {
	Load(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc func(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error)

func (f LoaderFunc) Load(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error) {
	return f(ctx, contract, from, to, opts)
}

// MatchesConfirmation applies a confirmation_status filter to a single
// interaction; adapters use it to filter client-side after fetching.
func MatchesConfirmation(i model.Interaction, filter ConfirmationFilter) bool {
	switch filter {
	case ConfirmationFilterAny, "":
		return true
	case ConfirmationFilterConfirmed:
		return i.ConfirmationStatus == model.ConfirmationConfirmed
	case ConfirmationFilterNotCorrupted:
		return i.ConfirmationStatus != model.ConfirmationCorrupted
	default:
		return true
	}
}

// MatchesSource applies a source filter to a single interaction.
func MatchesSource(i model.Interaction, filter SourceFilter) bool {
	switch filter {
	case SourceFilterAny, "":
		return true
	case SourceFilterNative:
		return i.Source == model.SourceNative || i.Source == ""
	case SourceFilterSequencer:
		return i.Source == model.SourceSequencer
	default:
		return true
	}
}

// InWindow reports whether sortKey falls in (from, to], where either
// bound may be empty to mean unbounded.
func InWindow(sortKey string, from string, to string) bool {
	if from != "" && !(sortKey > from) {
		return false
	}
	if to != "" && sortKey > to {
		return false
	}
	return true
}

// Filter applies InWindow, MatchesConfirmation and MatchesSource together,
// the combination every adapter needs after it has fetched raw pages.
func Filter(interactions []model.Interaction, from string, to string, opts Options) []model.Interaction {
	out := make([]model.Interaction, 0, len(interactions))
	for _, i := range interactions {
		if !InWindow(i.SortKey, from, to) {
			continue
		}
		if !MatchesConfirmation(i, opts.Confirmation) || !MatchesSource(i, opts.Source) {
			continue
		}
		out = append(out, i)
	}
	return out
}
