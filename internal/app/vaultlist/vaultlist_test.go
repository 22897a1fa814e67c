package vaultlist_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/app/vaultlist"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage/storagemock"
	"github.com/slok/legalflow/internal/vault"
)

func TestNewService(t *testing.T) {
	_, err := vaultlist.NewService(vaultlist.ServiceConfig{})
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := []model.Document{
		{ID: "id3", Name: "Employment-Agreement.pdf", Source: model.DocumentSourceUpload, CreatedAt: createdAt},
		{ID: "id2", Name: "nda.txt", Source: model.DocumentSourceFile, CreatedAt: createdAt},
		{ID: "id1", Name: "employment-draft", Source: model.DocumentSourceInline, CreatedAt: createdAt},
	}
	upload := model.DocumentSourceUpload

	tests := map[string]struct {
		mock   func(m *storagemock.MockRepository)
		req    vaultlist.Request
		expIDs []string
		expErr bool
	}{
		"list all documents without filter": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListDocuments", mock.Anything).Once().Return(docs, nil)
			},
			expIDs: []string{"id3", "id2", "id1"},
		},
		"filter by name should be case insensitive": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListDocuments", mock.Anything).Once().Return(docs, nil)
			},
			req:    vaultlist.Request{NameFilter: "EMPLOYMENT"},
			expIDs: []string{"id3", "id1"},
		},
		"filter by source": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListDocuments", mock.Anything).Once().Return(docs, nil)
			},
			req:    vaultlist.Request{NameFilter: "employment", SourceFilter: &upload},
			expIDs: []string{"id3"},
		},
		"empty vault": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListDocuments", mock.Anything).Once().Return([]model.Document{}, nil)
			},
			expIDs: []string{},
		},
		"repository error should propagate": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListDocuments", mock.Anything).Once().Return(nil, fmt.Errorf("db error"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			m := &storagemock.MockRepository{}
			test.mock(m)

			v, err := vault.New(vault.Config{Repository: m})
			require.NoError(err)
			svc, err := vaultlist.NewService(vaultlist.ServiceConfig{Vault: v})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)
			m.AssertExpectations(t)

			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)

			ids := []string{}
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, test.expIDs, ids)
		})
	}
}
