package upload_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/api"
	"github.com/slok/legalflow/internal/api/fake"
	"github.com/slok/legalflow/internal/app/upload"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage/memory"
	"github.com/slok/legalflow/internal/vault"
)

type uploaderFunc func(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error)

func (f uploaderFunc) UploadDocument(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	return f(ctx, filename, r)
}

func TestNewService(t *testing.T) {
	_, err := upload.NewService(upload.ServiceConfig{})
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		req       upload.Request
		withVault bool
		expText   string
		expPages  int
		expSaved  bool
		expErr    error
	}{
		"Uploading a text file should return its text.": {
			req:      upload.Request{Filename: "/tmp/contracts/nda.txt", Content: strings.NewReader("  Mutual non-disclosure agreement.\n")},
			expText:  "Mutual non-disclosure agreement.",
			expPages: 1,
		},
		"Uploading with save should store the document in the vault.": {
			req:       upload.Request{Filename: "nda.txt", Content: strings.NewReader("Mutual non-disclosure agreement."), Save: true},
			withVault: true,
			expText:   "Mutual non-disclosure agreement.",
			expPages:  1,
			expSaved:  true,
		},
		"Saving without a vault should fail.": {
			req:    upload.Request{Filename: "nda.txt", Content: strings.NewReader("text"), Save: true},
			expErr: model.ErrNotValid,
		},
		"A missing file should fail.": {
			req:    upload.Request{Filename: "nda.txt"},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			srv, err := fake.NewServer(fake.ServerConfig{})
			require.NoError(err)
			hs := httptest.NewServer(srv.Handler())
			defer hs.Close()

			client, err := api.NewClient(api.ClientConfig{BaseURL: hs.URL, RateLimit: 1000})
			require.NoError(err)

			cfg := upload.ServiceConfig{Uploader: client}
			var v *vault.Vault
			if test.withVault {
				repo, err := memory.NewRepository(memory.RepositoryConfig{})
				require.NoError(err)
				v, err = vault.New(vault.Config{Repository: repo})
				require.NoError(err)
				cfg.Vault = v
			}

			svc, err := upload.NewService(cfg)
			require.NoError(err)

			res, err := svc.Run(ctx, test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				assert.Empty(srv.Uploads())
				return
			}
			require.NoError(err)

			assert.Equal(test.expText, res.Upload.Text)
			assert.Equal(test.expPages, res.Upload.PageCount)
			assert.Equal([]string{"nda.txt"}, srv.Uploads())

			if test.expSaved {
				require.NotNil(res.Document)
				got, err := v.GetDocument(ctx, res.Document.ID)
				require.NoError(err)
				assert.Equal("nda.txt", got.Name)
				assert.Equal(model.DocumentSourceUpload, got.Source)
				assert.Equal(test.expText, got.Text)
			} else {
				assert.Nil(res.Document)
			}
		})
	}
}

func TestService_RunUploadFailure(t *testing.T) {
	svc, err := upload.NewService(upload.ServiceConfig{
		Uploader: uploaderFunc(func(context.Context, string, io.Reader) (*model.UploadResult, error) {
			return nil, &model.NetworkError{Op: "upload document", StatusCode: 422, Err: model.ErrNotValid}
		}),
	})
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), upload.Request{Filename: "scan.pdf", Content: strings.NewReader("%PDF-1.4")})

	var nerr *model.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, 422, nerr.StatusCode)
}
