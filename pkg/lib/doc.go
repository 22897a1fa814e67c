// Package lib provides a Go SDK to analyze legal documents and review redlines
// programmatically.
//
// This package allows applications to submit documents to the analysis backend,
// track the changes made between document revisions and keep documents with their
// analyses in the local vault, without shelling out to the legalflow CLI binary.
//
// # Quick Start
//
// Create a client and analyze a document:
//
//	client, err := lib.New(ctx, lib.Config{BaseURL: "https://legal.example.com"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Analyze(ctx, lib.AnalyzeOpts{
//	    Kind: lib.JobKindAudit,
//	    Text: "This Employment Agreement is made between...",
//	    Save: true,
//	})
//
// Analyze blocks until the backend task reaches a terminal status. Use
// [AnalyzeOpts].OnState to follow the progress while it's polled.
//
// # Tasks
//
// Tasks that were submitted before (e.g. by a process that was interrupted) can be
// checked or awaited with their backend ID:
//
//	task, _ := client.GetTask(ctx, lib.JobKindAudit, "4f9c...")
//	task, _ = client.WaitTask(ctx, lib.JobKindAudit, "4f9c...", nil)
//
// # Redlines
//
// A [Tracker] records the insertions and deletions made on a buffer, so every change
// can be accepted or rejected and the result exported as a PDF:
//
//	tracker, _ := client.NewTracker("The Employer will pay the salary.", nil)
//	defer tracker.Close()
//	tracker.OnEdit(old, updated, cursor)
//	tracker.Reject(0)
//	artifact, _ := tracker.Export(ctx)
//
// For whole revisions use [Client.Review].
//
// # Vault
//
// Uploaded and analyzed documents can be stored in a local SQLite vault:
//
//	docs, _ := client.ListDocuments(ctx, nil)
//	details, _ := client.GetDocument(ctx, docs[0].ID)
//	client.RemoveDocuments(ctx, docs[0].ID)
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Resource does not exist.
//   - [ErrAlreadyExists]: Resource with the same ID already exists.
//   - [ErrNotValid]: Invalid input (e.g. a document text that is too short).
//   - [ErrNotAuthenticated]: The backend rejected the session.
//
// And with [errors.As] for the details: [ValidationError], [NetworkError],
// [TimeoutError], [ServerTaskError] and [ExportError].
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines, every analysis
// uses its own poller. A [Tracker] is safe for concurrent use too.
package lib
