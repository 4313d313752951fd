// Package mocks provides centralized mock implementations for testing.
//
// Every mock has function fields that override individual methods. Store
// mocks fall back to a small in-memory implementation when a field is nil,
// so most tests only set the behaviour they care about:
//
//	cards := mocks.NewMockCardStore("mod1")
//	cards.UpdateStateFn = func(ctx context.Context, module, id string, s domain.SRSState) error {
//	    return store.ErrStoreUnavailable
//	}
//
// TestifyMockUserStore is the exception: it is driven by testify/mock
// expectations for tests that assert call sequences.
package mocks
