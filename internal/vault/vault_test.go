package vault_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage/memory"
	"github.com/slok/legalflow/internal/storage/storagemock"
	"github.com/slok/legalflow/internal/vault"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	v, err := vault.New(vault.Config{
		Repository: repo,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	return v
}

func TestNewVault(t *testing.T) {
	_, err := vault.New(vault.Config{})
	assert.Error(t, err)
}

func TestVaultDocumentLifecycle(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	v := newTestVault(t)

	var events []vault.Event
	unsubscribe := v.Subscribe(func(e vault.Event) { events = append(events, e) })
	defer unsubscribe()

	doc, err := v.SaveDocument(ctx, vault.SaveDocumentRequest{
		Name:      "nda.pdf",
		Text:      "Mutual non-disclosure agreement.",
		PageCount: 2,
		Source:    model.DocumentSourceUpload,
	})
	require.NoError(err)
	assert.NotEmpty(doc.ID)
	assert.Equal(now, doc.CreatedAt)

	got, err := v.GetDocument(ctx, doc.ID)
	require.NoError(err)
	assert.Equal(*doc, *got)

	updated, err := v.UpdateDocumentText(ctx, doc.ID, "Amended agreement.")
	require.NoError(err)
	assert.Equal("Amended agreement.", updated.Text)

	analysis, err := v.AddAnalysis(ctx, doc.ID, model.JobKindAudit, model.Task{
		ID:     "abc123",
		Status: model.TaskStatusCompleted,
		Result: json.RawMessage(`{"score":50}`),
	})
	require.NoError(err)
	assert.Equal("abc123", analysis.RemoteTaskID)

	analyses, err := v.ListAnalyses(ctx, doc.ID)
	require.NoError(err)
	require.Len(analyses, 1)
	assert.JSONEq(`{"score":50}`, string(analyses[0].Result))

	docs, err := v.ListDocuments(ctx)
	require.NoError(err)
	assert.Len(docs, 1)

	require.NoError(v.RemoveDocument(ctx, doc.ID))
	_, err = v.GetDocument(ctx, doc.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	_, err = v.ListAnalyses(ctx, doc.ID)
	assert.ErrorIs(err, model.ErrNotFound)

	exp := []vault.Event{
		{Revision: 1, Type: vault.EventDocumentSaved, DocumentID: doc.ID},
		{Revision: 2, Type: vault.EventDocumentUpdated, DocumentID: doc.ID},
		{Revision: 3, Type: vault.EventAnalysisAdded, DocumentID: doc.ID, AnalysisID: analysis.ID},
		{Revision: 4, Type: vault.EventDocumentRemoved, DocumentID: doc.ID},
	}
	assert.Equal(exp, events)
}

func TestVaultErrors(t *testing.T) {
	tests := map[string]struct {
		mock   func(m *storagemock.MockRepository)
		run    func(ctx context.Context, v *vault.Vault) error
		expErr error
	}{
		"Saving an empty document should fail without storing anything.": {
			mock: func(m *storagemock.MockRepository) {},
			run: func(ctx context.Context, v *vault.Vault) error {
				_, err := v.SaveDocument(ctx, vault.SaveDocumentRequest{Name: "x", Text: "   ", Source: model.DocumentSourceInline})
				return err
			},
			expErr: model.ErrNotValid,
		},
		"A storage failure while saving should fail.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("CreateDocument", mock.Anything, mock.Anything).Once().Return(fmt.Errorf("disk full"))
			},
			run: func(ctx context.Context, v *vault.Vault) error {
				_, err := v.SaveDocument(ctx, vault.SaveDocumentRequest{Name: "x", Text: "text", Source: model.DocumentSourceInline})
				return err
			},
		},
		"Adding an analysis of an unfinished task should fail.": {
			mock: func(m *storagemock.MockRepository) {},
			run: func(ctx context.Context, v *vault.Vault) error {
				_, err := v.AddAnalysis(ctx, "doc-1", model.JobKindAudit, model.Task{ID: "abc123", Status: model.TaskStatusProcessing})
				return err
			},
			expErr: model.ErrNotValid,
		},
		"Updating a missing document should fail.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetDocument", mock.Anything, "doc-1").Once().Return(nil, model.ErrNotFound)
			},
			run: func(ctx context.Context, v *vault.Vault) error {
				_, err := v.UpdateDocumentText(ctx, "doc-1", "text")
				return err
			},
			expErr: model.ErrNotFound,
		},
		"Removing a missing document should fail.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteDocument", mock.Anything, "doc-1").Once().Return(model.ErrNotFound)
			},
			run: func(ctx context.Context, v *vault.Vault) error {
				return v.RemoveDocument(ctx, "doc-1")
			},
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := &storagemock.MockRepository{}
			test.mock(m)

			v, err := vault.New(vault.Config{Repository: m})
			require.NoError(t, err)

			published := false
			v.Subscribe(func(vault.Event) { published = true })

			err = test.run(context.Background(), v)
			require.Error(t, err)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			}
			assert.False(t, published)
			m.AssertExpectations(t)
		})
	}
}
