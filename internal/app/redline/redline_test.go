package redline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appredline "github.com/slok/legalflow/internal/app/redline"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/redline"
)

type exporterFunc func(ctx context.Context, content string, changes []model.TextChange) (*model.ExportArtifact, error)

func (f exporterFunc) ExportRedline(ctx context.Context, content string, changes []model.TextChange) (*model.ExportArtifact, error) {
	return f(ctx, content, changes)
}

type change struct {
	Type     model.ChangeType
	Content  string
	Position int
}

func simplify(changes []model.TextChange) []change {
	res := []change{}
	for _, c := range changes {
		res = append(res, change{Type: c.Type, Content: c.Content, Position: c.Position})
	}
	return res
}

const (
	original = "The Employer will pay the salary."
	monthly  = "The Employer will pay the monthly salary."
	noDot    = "The Employer will pay the monthly salary"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		cfg         appredline.ServiceConfig
		req         appredline.Request
		expChanges  []change
		expRejected []change
		expBuffer   string
		expErr      error
	}{
		"Revisions should be recorded as changes.": {
			req: appredline.Request{Original: original, Revisions: []string{monthly, noDot}},
			expChanges: []change{
				{Type: model.ChangeTypeInsertion, Content: "monthly ", Position: 26},
				{Type: model.ChangeTypeDeletion, Content: ".", Position: 40},
			},
			expRejected: []change{},
			expBuffer:   noDot,
		},
		"Rejecting all the changes should restore the original.": {
			req:        appredline.Request{Original: original, Revisions: []string{monthly, noDot}, Reject: []int{0, 1, 0}},
			expChanges: []change{},
			expRejected: []change{
				{Type: model.ChangeTypeInsertion, Content: "monthly ", Position: 26},
				{Type: model.ChangeTypeDeletion, Content: ".", Position: 40},
			},
			expBuffer: original,
		},
		"Rejecting the last change should keep the previous ones.": {
			req: appredline.Request{Original: original, Revisions: []string{monthly, noDot}, Reject: []int{1}},
			expChanges: []change{
				{Type: model.ChangeTypeInsertion, Content: "monthly ", Position: 26},
			},
			expRejected: []change{
				{Type: model.ChangeTypeDeletion, Content: ".", Position: 40},
			},
			expBuffer: monthly,
		},
		"Accepting all should empty the change log.": {
			req:         appredline.Request{Original: original, Revisions: []string{monthly, noDot}, AcceptAll: true},
			expChanges:  []change{},
			expRejected: []change{},
			expBuffer:   noDot,
		},
		"Length delta mode should use the edit cursor.": {
			cfg:         appredline.ServiceConfig{DiffMode: redline.DiffModeLengthDelta},
			req:         appredline.Request{Original: "Helo", Revisions: []string{"Hello"}},
			expChanges:  []change{{Type: model.ChangeTypeInsertion, Content: "l", Position: 3}},
			expRejected: []change{},
			expBuffer:   "Hello",
		},
		"Missing revisions should fail.": {
			req:    appredline.Request{Original: original},
			expErr: model.ErrNotValid,
		},
		"Rejecting an unknown change should fail.": {
			req:    appredline.Request{Original: original, Revisions: []string{monthly}, Reject: []int{3}},
			expErr: model.ErrNotValid,
		},
		"Exporting without exporter should fail.": {
			req:    appredline.Request{Original: original, Revisions: []string{monthly}, Export: true},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			svc, err := appredline.NewService(test.cfg)
			require.NoError(err)

			res, err := svc.Run(context.Background(), test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			assert.Equal(test.expChanges, simplify(res.Changes))
			assert.Equal(test.expRejected, simplify(res.Rejected))
			assert.Equal(test.expBuffer, res.Buffer)
			assert.Nil(res.Artifact)
		})
	}
}

func TestService_RunExport(t *testing.T) {
	t.Run("Exporting should send the reviewed buffer and changes.", func(t *testing.T) {
		var gotContent string
		var gotChanges []model.TextChange
		svc, err := appredline.NewService(appredline.ServiceConfig{
			Exporter: exporterFunc(func(_ context.Context, content string, changes []model.TextChange) (*model.ExportArtifact, error) {
				gotContent, gotChanges = content, changes
				return &model.ExportArtifact{Filename: "redline.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
			}),
		})
		require.NoError(t, err)

		res, err := svc.Run(context.Background(), appredline.Request{
			Original:  original,
			Revisions: []string{monthly, noDot},
			Reject:    []int{1},
			Export:    true,
		})
		require.NoError(t, err)

		assert.Equal(t, "redline.pdf", res.Artifact.Filename)
		assert.Equal(t, monthly, gotContent)
		assert.Equal(t, []change{{Type: model.ChangeTypeInsertion, Content: "monthly ", Position: 26}}, simplify(gotChanges))
	})

	t.Run("Export failures should be returned as export errors.", func(t *testing.T) {
		svc, err := appredline.NewService(appredline.ServiceConfig{
			Exporter: exporterFunc(func(context.Context, string, []model.TextChange) (*model.ExportArtifact, error) {
				return nil, errors.New("renderer unavailable")
			}),
		})
		require.NoError(t, err)

		res, err := svc.Run(context.Background(), appredline.Request{Original: original, Revisions: []string{monthly}, Export: true})

		var eerr *model.ExportError
		assert.ErrorAs(t, err, &eerr)
		require.NotNil(t, res)
		assert.Equal(t, monthly, res.Buffer)
	})
}

func TestNewServiceInvalidDiffMode(t *testing.T) {
	_, err := appredline.NewService(appredline.ServiceConfig{DiffMode: "patience"})
	assert.ErrorIs(t, err, model.ErrNotValid)
}
