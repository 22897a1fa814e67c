package vaultremove_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/app/vaultremove"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage/storagemock"
	"github.com/slok/legalflow/internal/vault"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock       func(m *storagemock.MockRepository)
		req        vaultremove.Request
		expRemoved []string
		expErr     error
	}{
		"removing documents should return them": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetDocument", mock.Anything, "id1").Once().Return(&model.Document{ID: "id1", Name: "a"}, nil)
				m.On("DeleteDocument", mock.Anything, "id1").Once().Return(nil)
				m.On("GetDocument", mock.Anything, "id2").Once().Return(&model.Document{ID: "id2", Name: "b"}, nil)
				m.On("DeleteDocument", mock.Anything, "id2").Once().Return(nil)
			},
			req:        vaultremove.Request{DocumentIDs: []string{"id1", "id2"}},
			expRemoved: []string{"id1", "id2"},
		},
		"a missing document should stop the removal": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetDocument", mock.Anything, "id1").Once().Return(&model.Document{ID: "id1", Name: "a"}, nil)
				m.On("DeleteDocument", mock.Anything, "id1").Once().Return(nil)
				m.On("GetDocument", mock.Anything, "id2").Once().Return(nil, fmt.Errorf("document id2: %w", model.ErrNotFound))
			},
			req:        vaultremove.Request{DocumentIDs: []string{"id1", "id2", "id3"}},
			expRemoved: []string{"id1"},
			expErr:     model.ErrNotFound,
		},
		"no documents should fail": {
			mock:       func(m *storagemock.MockRepository) {},
			req:        vaultremove.Request{},
			expRemoved: []string{},
			expErr:     model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			m := &storagemock.MockRepository{}
			test.mock(m)

			v, err := vault.New(vault.Config{Repository: m})
			require.NoError(err)
			svc, err := vaultremove.NewService(vaultremove.ServiceConfig{Vault: v})
			require.NoError(err)

			removed, err := svc.Run(context.Background(), test.req)
			m.AssertExpectations(t)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				require.NoError(err)
			}

			ids := []string{}
			for _, d := range removed {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, test.expRemoved, ids)
		})
	}
}
