// Package directory resolves project membership and public keys.
//
// Two implementations satisfy Directory:
//
//   - ExportFile: a recipients.export.json downloaded from the web app.
//     Works offline and is what tests use.
//   - Supabase: the web app's PostgREST API, reached with resty and the
//     project's anon key.
//
// Commands construct one explicitly with New and pass it to the workflows;
// there is no package-level client.
package directory
