// Package configs manages ripenv's per-user configuration.
//
// Everything lives under ~/.ripenv (or RIPENV_HOME):
//
//   - config.toml: user email, default keyfile, project id and output
//     directory, and the hosted directory URL and anon key
//   - mykey.enc.json: the home copy of the user's keyfile
//   - audit.jsonl: the local audit log
//
// # Precedence
//
// Load merges two layers. RIPENV_* environment variables win; the TOML file
// fills anything they leave empty. Command flags are applied on top by the
// cmd package.
//
//	settings, err := configs.LoadSettings()
//	config, err := configs.Load(settings)
//
// Config.Get and Config.Set address fields with dotted keys such as
// "user.email", which is what `ripenv config set` uses.
package configs
