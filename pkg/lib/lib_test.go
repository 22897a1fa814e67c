package lib_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/api/fake"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/pkg/lib"
)

const contractText = "This Employment Agreement may be terminated by either party with thirty days notice."

// newTestClient creates a client against a fake backend with a temp SQLite vault.
func newTestClient(t *testing.T, srvCfg fake.ServerConfig, cfg lib.Config) (*lib.Client, *fake.Server) {
	t.Helper()

	srv, err := fake.NewServer(srvCfg)
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	cfg.BaseURL = hs.URL
	cfg.DataDir = t.TempDir()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	cfg.RateLimit = 1000

	client, err := lib.New(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, srv
}

func TestAnalyze(t *testing.T) {
	tests := map[string]struct {
		srvCfg    fake.ServerConfig
		opts      lib.AnalyzeOpts
		expPhase  lib.PollPhase
		expSaved  bool
		expErr    bool
		expIs     error
		expServer bool
	}{
		"Analyzing a document should complete the task.": {
			opts:     lib.AnalyzeOpts{Kind: lib.JobKindAudit, Text: contractText},
			expPhase: lib.PollPhaseCompleted,
		},
		"Analyzing without kind should use the audit kind.": {
			opts:     lib.AnalyzeOpts{Text: contractText},
			expPhase: lib.PollPhaseCompleted,
		},
		"Analyzing with save should store the document and the analysis.": {
			opts:     lib.AnalyzeOpts{Kind: lib.JobKindResearch, Text: contractText, Name: "employment", Save: true},
			expPhase: lib.PollPhaseCompleted,
			expSaved: true,
		},
		"A short text should fail without reaching the backend.": {
			opts:   lib.AnalyzeOpts{Text: "short"},
			expErr: true,
			expIs:  lib.ErrNotValid,
		},
		"A failed backend task should return a server task error.": {
			srvCfg: fake.ServerConfig{Analyzer: func(_ model.JobKind, _ string, _ map[string]any) (any, error) {
				return nil, errors.New("document is not a contract")
			}},
			opts:      lib.AnalyzeOpts{Text: contractText},
			expPhase:  lib.PollPhaseError,
			expErr:    true,
			expServer: true,
		},
		"A missing session should fail as not authenticated.": {
			srvCfg: fake.ServerConfig{SessionToken: "s3cr3t"},
			opts:   lib.AnalyzeOpts{Text: contractText},
			expErr: true,
			expIs:  lib.ErrNotAuthenticated,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, _ := newTestClient(t, test.srvCfg, lib.Config{})

			var mu sync.Mutex
			var phases []lib.PollPhase
			test.opts.OnState = func(s lib.TaskState) {
				mu.Lock()
				defer mu.Unlock()
				phases = append(phases, s.Phase)
			}

			res, err := client.Analyze(context.Background(), test.opts)
			if test.expErr {
				require.Error(err)
				if test.expIs != nil {
					assert.ErrorIs(err, test.expIs)
				}
				if test.expServer {
					var serr *lib.ServerTaskError
					assert.ErrorAs(err, &serr)
					require.NotNil(res)
					assert.Equal(test.expPhase, res.State.Phase)
					assert.Equal("document is not a contract", res.State.Task.Error)
				}
				return
			}
			require.NoError(err)

			assert.Equal(test.expPhase, res.State.Phase)
			require.NotNil(res.State.Task)
			assert.Equal(lib.TaskStatusCompleted, res.State.Task.Status)
			assert.NotEmpty(res.State.Task.Result)

			mu.Lock()
			assert.Contains(phases, lib.PollPhasePolling)
			mu.Unlock()

			if !test.expSaved {
				assert.Nil(res.Document)
				return
			}

			require.NotNil(res.Document)
			details, err := client.GetDocument(context.Background(), res.Document.ID)
			require.NoError(err)
			assert.Equal("employment", details.Document.Name)
			require.Len(details.Analyses, 1)
			assert.Equal(lib.JobKindResearch, details.Analyses[0].Kind)
			assert.Equal(res.State.Task.ID, details.Analyses[0].RemoteTaskID)
		})
	}
}

func TestAnalyzeWithSession(t *testing.T) {
	client, _ := newTestClient(t, fake.ServerConfig{SessionToken: "s3cr3t"}, lib.Config{
		SessionCookies: []*http.Cookie{{Name: fake.SessionCookieName, Value: "s3cr3t"}},
	})

	res, err := client.Analyze(context.Background(), lib.AnalyzeOpts{Text: contractText})
	require.NoError(t, err)
	assert.Equal(t, lib.PollPhaseCompleted, res.State.Phase)
}

func TestTasks(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	client, _ := newTestClient(t, fake.ServerConfig{StepsToComplete: 3}, lib.Config{})

	res, err := client.Analyze(ctx, lib.AnalyzeOpts{Kind: lib.JobKindDraft, Text: contractText})
	require.NoError(err)
	taskID := res.State.Task.ID

	task, err := client.GetTask(ctx, lib.JobKindDraft, taskID)
	require.NoError(err)
	assert.Equal(lib.TaskStatusCompleted, task.Status)

	task, err = client.WaitTask(ctx, lib.JobKindDraft, taskID, nil)
	require.NoError(err)
	assert.Equal(lib.TaskStatusCompleted, task.Status)

	_, err = client.GetTask(ctx, lib.JobKindDraft, "missing")
	assert.Error(err)

	_, err = client.GetTask(ctx, lib.JobKindDraft, "")
	assert.ErrorIs(err, lib.ErrNotValid)
}

func TestUploadAndVault(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	client, srv := newTestClient(t, fake.ServerConfig{}, lib.Config{})

	up, err := client.Upload(ctx, lib.UploadOpts{
		Filename: "/home/user/contracts/nda.txt",
		Content:  strings.NewReader("Mutual non-disclosure agreement."),
		Save:     true,
	})
	require.NoError(err)
	assert.Equal("Mutual non-disclosure agreement.", up.Text)
	assert.Equal([]string{"nda.txt"}, srv.Uploads())
	require.NotNil(up.Document)

	_, err = client.Upload(ctx, lib.UploadOpts{Filename: "other.txt", Content: strings.NewReader("Service agreement."), Save: true})
	require.NoError(err)

	docs, err := client.ListDocuments(ctx, nil)
	require.NoError(err)
	assert.Len(docs, 2)

	docs, err = client.ListDocuments(ctx, &lib.ListDocumentsOpts{Name: "NDA"})
	require.NoError(err)
	require.Len(docs, 1)
	assert.Equal(up.Document.ID, docs[0].ID)
	assert.Equal(lib.DocumentSourceUpload, docs[0].Source)

	removed, err := client.RemoveDocuments(ctx, up.Document.ID, "missing")
	assert.ErrorIs(err, lib.ErrNotFound)
	require.Len(removed, 1)
	assert.Equal("nda.txt", removed[0].Name)

	_, err = client.GetDocument(ctx, up.Document.ID)
	assert.ErrorIs(err, lib.ErrNotFound)
}

func TestReview(t *testing.T) {
	tests := map[string]struct {
		opts       lib.ReviewOpts
		expContent string
		expChanges int
		expExport  bool
		expIs      error
	}{
		"Reviewing revisions should list the changes.": {
			opts:       lib.ReviewOpts{Original: "The Employer will pay the salary.", Revisions: []string{"The Employer will pay the monthly salary."}},
			expContent: "The Employer will pay the monthly salary.",
			expChanges: 1,
		},
		"Rejecting a change should revert it.": {
			opts:       lib.ReviewOpts{Original: "The Employer will pay the salary.", Revisions: []string{"The Employer will pay the monthly salary."}, Reject: []int{0}},
			expContent: "The Employer will pay the salary.",
		},
		"Exporting should render the reviewed document.": {
			opts:       lib.ReviewOpts{Original: "The Employer will pay the salary.", Revisions: []string{"The Employer will pay the monthly salary."}, Export: true},
			expContent: "The Employer will pay the monthly salary.",
			expChanges: 1,
			expExport:  true,
		},
		"An unknown diff mode should fail.": {
			opts:  lib.ReviewOpts{Original: "a", Revisions: []string{"b"}, DiffMode: "patience"},
			expIs: lib.ErrNotValid,
		},
		"Without revisions should fail.": {
			opts:  lib.ReviewOpts{Original: "a"},
			expIs: lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, _ := newTestClient(t, fake.ServerConfig{}, lib.Config{})

			res, err := client.Review(context.Background(), test.opts)
			if test.expIs != nil {
				assert.ErrorIs(err, test.expIs)
				return
			}
			require.NoError(err)

			assert.Equal(test.expContent, res.Content)
			assert.Len(res.Changes, test.expChanges)
			if test.expExport {
				require.NotNil(res.Export)
				assert.Equal("application/pdf", res.Export.ContentType)
				assert.True(strings.HasPrefix(string(res.Export.Data), "%PDF-"))
			} else {
				assert.Nil(res.Export)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	client, _ := newTestClient(t, fake.ServerConfig{}, lib.Config{})

	tracker, err := client.NewTracker("Helo", &lib.TrackerOpts{DiffMode: lib.DiffModeLengthDelta})
	require.NoError(err)
	defer tracker.Close()

	require.NoError(tracker.OnEdit("Helo", "Hello", 4))
	changes := tracker.Changes()
	require.Len(changes, 1)
	assert.Equal(lib.ChangeTypeInsertion, changes[0].Type)
	assert.Equal("l", changes[0].Content)
	assert.Equal(3, changes[0].Position)

	buf, err := tracker.Reject(0)
	require.NoError(err)
	assert.Equal("Helo", buf)
	assert.Empty(tracker.Changes())

	_, err = tracker.Reject(0)
	assert.ErrorIs(err, lib.ErrNotValid)
}
