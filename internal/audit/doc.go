// Package audit records ripenv operations in a local JSON Lines log.
//
// The log lives at ~/.ripenv/audit.jsonl. Each line is one Entry:
//
//	{"id":"4f1c...","ts":"2026-01-02T15:04:05.000000Z","op":"encrypt",
//	 "project_id":"proj-1","email":"alice@example.com",
//	 "files":[".env.enc","ripenv.manifest.json"],"recipients_count":2}
//
// Record is best effort. Callers log a warning when it fails and carry on;
// an audit failure never fails an encrypt or decrypt.
//
// Nothing secret is ever written: no passwords, keys or plaintext.
package audit
