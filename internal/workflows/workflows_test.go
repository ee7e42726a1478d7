package workflows

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/ripenv/internal/audit"
	"github.com/PolarWolf314/ripenv/internal/directory"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
)

const envContent = "API_KEY=abc123\nDB_URL=postgres://localhost/app\n"

// member is a user with a keyfile on disk.
type member struct {
	email    string
	password []byte
	keyFile  string
	kf       *secrets.KeyFile
}

func newMember(t *testing.T, dir, email, password string) *member {
	t.Helper()
	kf, err := secrets.CreateKeyFile([]byte(password))
	require.NoError(t, err)

	path := filepath.Join(dir, email+".enc.json")
	require.NoError(t, secrets.SaveKeyFile(kf, path))
	return &member{email: email, password: []byte(password), keyFile: path, kf: kf}
}

func (m *member) recipient() secrets.Recipient {
	return secrets.Recipient{Email: m.email, PublicKey: m.kf.PublicKey}
}

// team is two members, a .env file and an export-file directory.
type team struct {
	dir       string
	alice     *member
	bob       *member
	envPath   string
	directory directory.Directory
}

func newTeam(t *testing.T) *team {
	t.Helper()
	dir := t.TempDir()
	tm := &team{
		dir:     dir,
		alice:   newMember(t, dir, "alice@example.com", "alice-password"),
		bob:     newMember(t, dir, "bob@example.com", "bob-password"),
		envPath: filepath.Join(dir, ".env"),
	}
	require.NoError(t, os.WriteFile(tm.envPath, []byte(envContent), 0600))

	export := secrets.RecipientsExport{
		ProjectID:  "proj-1",
		Recipients: []secrets.Recipient{tm.alice.recipient(), tm.bob.recipient()},
	}
	data, err := json.Marshal(export)
	require.NoError(t, err)
	exportPath := filepath.Join(dir, secrets.RecipientsFileName)
	require.NoError(t, os.WriteFile(exportPath, data, 0600))

	tm.directory, err = directory.NewExportFile(exportPath)
	require.NoError(t, err)
	return tm
}

func (tm *team) encrypt(t *testing.T, outDir string) *EncryptResult {
	t.Helper()
	result, err := Encrypt(context.Background(), EncryptOptions{
		EnvPath:   tm.envPath,
		OutDir:    outDir,
		Directory: tm.directory,
	})
	require.NoError(t, err)
	return result
}

func (tm *team) decryptOptions(m *member, bundleDir string) DecryptOptions {
	return DecryptOptions{
		EncPath:     filepath.Join(bundleDir, EncryptedEnvFileName),
		KeyFilePath: m.keyFile,
		Password:    m.password,
		OutPath:     filepath.Join(bundleDir, m.email+".env"),
	}
}

// fakeDirectory answers membership from a fixed set.
type fakeDirectory struct {
	directory.Directory
	members map[string]bool
}

func (f fakeDirectory) VerifyAccess(_ context.Context, _, email string) (bool, error) {
	return f.members[email], nil
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "mykey.enc.json")
	home := filepath.Join(dir, "home", ".ripenv", "mykey.enc.json")
	log := audit.New(filepath.Join(dir, "audit.jsonl"))

	result, err := Init(context.Background(), InitOptions{
		Password:     []byte("Sup3rSecret!"),
		Destinations: []string{local, home, local},
		Email:        "alice@example.com",
		AuditLog:     log,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{local, home}, result.KeyFilePaths)
	assert.NotEmpty(t, result.Fingerprint)
	assert.NoError(t, result.AuditErr)

	localData, err := os.ReadFile(local)
	require.NoError(t, err)
	homeData, err := os.ReadFile(home)
	require.NoError(t, err)
	assert.Equal(t, localData, homeData)

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	kf, err := secrets.LoadKeyFile(local)
	require.NoError(t, err)
	assert.Equal(t, result.PublicKey, kf.PublicKey)
	privateKey, err := secrets.UnlockPrivateKey([]byte("Sup3rSecret!"), kf)
	require.NoError(t, err)
	privateKey.Wipe()

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpInit, entries[0].Operation)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "mykey.enc.json")
	home := filepath.Join(dir, "home", "mykey.enc.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(home), 0700))
	require.NoError(t, os.WriteFile(home, []byte("existing"), 0600))

	opts := InitOptions{Password: []byte("Sup3rSecret!"), Destinations: []string{local, home}}

	_, err := Init(context.Background(), opts)
	assert.ErrorIs(t, err, kerrors.ErrFileExists)
	assert.NoFileExists(t, local, "nothing may be written when any destination is refused")

	data, err := os.ReadFile(home)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))

	opts.Force = true
	_, err = Init(context.Background(), opts)
	require.NoError(t, err)
	assert.FileExists(t, local)
}

func TestInitValidation(t *testing.T) {
	_, err := Init(context.Background(), InitOptions{Destinations: []string{"x"}})
	assert.ErrorIs(t, err, kerrors.ErrValidation)

	_, err = Init(context.Background(), InitOptions{Password: []byte("pw")})
	assert.ErrorIs(t, err, kerrors.ErrValidation)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tm := newTeam(t)
	bundle := filepath.Join(tm.dir, "bundle")
	log := audit.New(filepath.Join(tm.dir, "audit.jsonl"))

	result, err := Encrypt(context.Background(), EncryptOptions{
		EnvPath:   tm.envPath,
		OutDir:    bundle,
		Directory: tm.directory,
		Email:     tm.alice.email,
		AuditLog:  log,
	})
	require.NoError(t, err)
	assert.Equal(t, "proj-1", result.ProjectID)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, result.Recipients)
	assert.Equal(t, 2, result.Variables)
	assert.False(t, result.EmptyInput)
	assert.NoError(t, result.TouchErr)
	assert.FileExists(t, result.PayloadPath)
	assert.FileExists(t, result.ManifestPath)

	for _, m := range []*member{tm.alice, tm.bob} {
		t.Run(m.email, func(t *testing.T) {
			opts := tm.decryptOptions(m, bundle)
			opts.AuditLog = log

			decrypted, err := Decrypt(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, m.email, decrypted.Email)
			assert.Equal(t, "proj-1", decrypted.ProjectID)

			data, err := os.ReadFile(decrypted.OutPath)
			require.NoError(t, err)
			assert.Equal(t, envContent, string(data))

			info, err := os.Stat(decrypted.OutPath)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		})
	}

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.OpEncrypt, entries[0].Operation)
	assert.Equal(t, 2, entries[0].RecipientsCount)
	assert.Equal(t, audit.OpDecrypt, entries[1].Operation)
}

func TestEncryptEmptyEnv(t *testing.T) {
	tm := newTeam(t)
	require.NoError(t, os.WriteFile(tm.envPath, nil, 0600))

	result := tm.encrypt(t, tm.dir)
	assert.True(t, result.EmptyInput)

	decrypted, err := Decrypt(context.Background(), tm.decryptOptions(tm.bob, tm.dir))
	require.NoError(t, err)
	data, err := os.ReadFile(decrypted.OutPath)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEncryptErrors(t *testing.T) {
	tm := newTeam(t)
	ctx := context.Background()

	t.Run("missing env file", func(t *testing.T) {
		_, err := Encrypt(ctx, EncryptOptions{EnvPath: filepath.Join(tm.dir, "nope"), Directory: tm.directory})
		assert.ErrorIs(t, err, kerrors.ErrFileNotFound)
	})

	t.Run("unparseable env file", func(t *testing.T) {
		bad := filepath.Join(tm.dir, "bad.env")
		require.NoError(t, os.WriteFile(bad, []byte("GOOD=1\nnot-a-valid-line\n"), 0600))
		_, err := Encrypt(ctx, EncryptOptions{EnvPath: bad, OutDir: t.TempDir(), Directory: tm.directory})
		assert.ErrorIs(t, err, kerrors.ErrInvalidEnvFile)
	})

	t.Run("no directory", func(t *testing.T) {
		_, err := Encrypt(ctx, EncryptOptions{EnvPath: tm.envPath, OutDir: t.TempDir()})
		assert.ErrorIs(t, err, kerrors.ErrDirectoryNotConfigured)
	})

	t.Run("project mismatch", func(t *testing.T) {
		_, err := Encrypt(ctx, EncryptOptions{
			EnvPath: tm.envPath, OutDir: t.TempDir(), Directory: tm.directory, ProjectID: "proj-2",
		})
		assert.ErrorIs(t, err, kerrors.ErrProjectMismatch)
	})
}

func TestEncryptRefusesOverwrite(t *testing.T) {
	tm := newTeam(t)
	out := t.TempDir()
	manifestPath := secrets.ManifestPath(out)
	require.NoError(t, os.WriteFile(manifestPath, []byte("keep"), 0644))

	_, err := Encrypt(context.Background(), EncryptOptions{EnvPath: tm.envPath, OutDir: out, Directory: tm.directory})
	assert.ErrorIs(t, err, kerrors.ErrFileExists)
	assert.NoFileExists(t, filepath.Join(out, EncryptedEnvFileName))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	_, err = Encrypt(context.Background(), EncryptOptions{
		EnvPath: tm.envPath, OutDir: out, Directory: tm.directory, Force: true,
	})
	require.NoError(t, err)
}

func TestDecryptFailures(t *testing.T) {
	tm := newTeam(t)
	tm.encrypt(t, tm.dir)
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		opts := tm.decryptOptions(tm.bob, tm.dir)
		opts.Password = []byte("not-bobs-password")

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrAuthentication)
		assert.ErrorIs(t, err, kerrors.ErrUnlockFailed)
		assert.NoFileExists(t, opts.OutPath)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		corrupt := t.TempDir()
		payload, err := os.ReadFile(filepath.Join(tm.dir, EncryptedEnvFileName))
		require.NoError(t, err)
		payload[10] ^= 0x01
		require.NoError(t, os.WriteFile(filepath.Join(corrupt, EncryptedEnvFileName), payload, 0644))

		opts := tm.decryptOptions(tm.bob, corrupt)
		opts.ManifestPath = secrets.ManifestPath(tm.dir)

		_, err = Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrAuthentication)
		assert.NoFileExists(t, opts.OutPath)
	})

	t.Run("identity not in manifest", func(t *testing.T) {
		carol := newMember(t, t.TempDir(), "carol@example.com", "carol-password")
		opts := tm.decryptOptions(carol, tm.dir)

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrNoManifestEntry)
		assert.ErrorIs(t, err, kerrors.ErrAccess)
	})

	t.Run("not a project member", func(t *testing.T) {
		opts := tm.decryptOptions(tm.bob, tm.dir)
		opts.Directory = fakeDirectory{members: map[string]bool{tm.alice.email: true}}

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrNotProjectMember)
	})

	t.Run("project mismatch", func(t *testing.T) {
		opts := tm.decryptOptions(tm.bob, tm.dir)
		opts.ProjectID = "proj-2"

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrProjectMismatch)
	})

	t.Run("existing output", func(t *testing.T) {
		opts := tm.decryptOptions(tm.bob, tm.dir)
		require.NoError(t, os.WriteFile(opts.OutPath, []byte("keep"), 0644))
		require.NoError(t, os.Chmod(opts.OutPath, 0644))

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrFileExists)

		opts.Force = true
		_, err = Decrypt(ctx, opts)
		require.NoError(t, err)
		data, err := os.ReadFile(opts.OutPath)
		require.NoError(t, err)
		assert.Equal(t, envContent, string(data))

		info, err := os.Stat(opts.OutPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("missing keyfile", func(t *testing.T) {
		opts := tm.decryptOptions(tm.bob, tm.dir)
		opts.KeyFilePath = filepath.Join(tm.dir, "missing.enc.json")

		_, err := Decrypt(ctx, opts)
		assert.ErrorIs(t, err, kerrors.ErrFileNotFound)
	})
}

func TestPrepareDecryptNeedsNoPassword(t *testing.T) {
	tm := newTeam(t)
	tm.encrypt(t, tm.dir)
	ctx := context.Background()

	opts := tm.decryptOptions(tm.bob, tm.dir)
	opts.Password = nil

	plan, err := PrepareDecrypt(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, tm.bob.email, plan.Email())
	assert.Equal(t, "proj-1", plan.ProjectID())
	assert.Equal(t, opts.OutPath, plan.OutPath())
	assert.NoFileExists(t, opts.OutPath)

	_, err = plan.Run(ctx, []byte("not-bobs-password"))
	assert.ErrorIs(t, err, kerrors.ErrUnlockFailed)

	result, err := plan.Run(ctx, tm.bob.password)
	require.NoError(t, err)
	data, err := os.ReadFile(result.OutPath)
	require.NoError(t, err)
	assert.Equal(t, envContent, string(data))

	t.Run("output created after prepare", func(t *testing.T) {
		opts := tm.decryptOptions(tm.alice, tm.dir)
		plan, err := PrepareDecrypt(ctx, opts)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(opts.OutPath, []byte("keep"), 0600))
		_, err = plan.Run(ctx, tm.alice.password)
		assert.ErrorIs(t, err, kerrors.ErrFileExists)
	})

	t.Run("identity not in manifest", func(t *testing.T) {
		carol := newMember(t, t.TempDir(), "carol@example.com", "carol-password")
		_, err := PrepareDecrypt(ctx, tm.decryptOptions(carol, tm.dir))
		assert.ErrorIs(t, err, kerrors.ErrNoManifestEntry)
	})
}

func TestLog(t *testing.T) {
	log := audit.New(filepath.Join(t.TempDir(), "audit.jsonl"))
	for _, e := range []audit.Entry{
		{Timestamp: "2024-01-10T09:00:00.000000Z", Operation: audit.OpInit, Email: "alice@example.com", Files: []string{"a", "b"}},
		{Timestamp: "2024-01-15T10:00:00.000000Z", Operation: audit.OpEncrypt, Email: "alice@example.com", ProjectID: "proj-1", RecipientsCount: 2},
		{Timestamp: "2024-01-20T11:00:00.000000Z", Operation: audit.OpDecrypt, Email: "Bob@Example.com", ProjectID: "proj-1", Files: []string{"/tmp/.env"}},
		{Timestamp: "2024-02-01T12:00:00.000000Z", Operation: audit.OpDecrypt, Email: "alice@example.com", ProjectID: "proj-2", Files: []string{"/tmp/.env"}},
	} {
		require.NoError(t, log.Record(e))
	}
	ctx := context.Background()

	ops := func(entries []audit.Entry) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Operation+":"+e.Timestamp[:10])
		}
		return out
	}

	tests := []struct {
		name     string
		opts     LogOptions
		expected []string
	}{
		{"all", LogOptions{}, []string{"init:2024-01-10", "encrypt:2024-01-15", "decrypt:2024-01-20", "decrypt:2024-02-01"}},
		{"email ignores case", LogOptions{Email: "bob@example.com"}, []string{"decrypt:2024-01-20"}},
		{"project", LogOptions{ProjectID: "proj-2"}, []string{"decrypt:2024-02-01"}},
		{"operations", LogOptions{Operations: "init, ENCRYPT"}, []string{"init:2024-01-10", "encrypt:2024-01-15"}},
		{"since", LogOptions{Since: "2024-01-15"}, []string{"encrypt:2024-01-15", "decrypt:2024-01-20", "decrypt:2024-02-01"}},
		{"until includes the whole day", LogOptions{Until: "2024-01-15"}, []string{"init:2024-01-10", "encrypt:2024-01-15"}},
		{"limit keeps most recent", LogOptions{Limit: 2}, []string{"decrypt:2024-01-20", "decrypt:2024-02-01"}},
		{"reverse with limit", LogOptions{Reverse: true, Limit: 2}, []string{"decrypt:2024-02-01", "decrypt:2024-01-20"}},
		{"no match", LogOptions{Email: "carol@example.com"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.AuditLog = log
			result, err := Log(ctx, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, 4, result.TotalEntriesBeforeFilter)
			assert.Equal(t, tc.expected, ops(result.Entries))
		})
	}

	t.Run("invalid date", func(t *testing.T) {
		_, err := Log(ctx, LogOptions{AuditLog: log, Since: "01/02/2024"})
		assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
		assert.ErrorIs(t, err, kerrors.ErrValidation)

		_, err = Log(ctx, LogOptions{AuditLog: log, Until: "2024-13-01"})
		assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
	})

	t.Run("missing log", func(t *testing.T) {
		result, err := Log(ctx, LogOptions{AuditLog: audit.New(filepath.Join(t.TempDir(), "none.jsonl"))})
		require.NoError(t, err)
		assert.Zero(t, result.TotalEntriesBeforeFilter)
		assert.Empty(t, result.Entries)
	})
}

func TestFormatLogDetails(t *testing.T) {
	assert.Equal(t, "2024-01-20", FormatDate("2024-01-20T11:00:00.000000Z"))
	assert.Equal(t, "2024-01-20 11:00:00", FormatDateTime("2024-01-20T11:00:00.000000Z"))
	assert.Equal(t, "garbage", FormatDate("garbage"))

	assert.Equal(t, "3 recipients", FormatDetails(audit.Entry{Operation: audit.OpEncrypt, RecipientsCount: 3}))
	assert.Equal(t, "2 keyfiles", FormatDetails(audit.Entry{Operation: audit.OpInit, Files: []string{"a", "b"}}))

	decrypt := audit.Entry{Operation: audit.OpDecrypt, Files: []string{"/srv/app/.env"}}
	assert.Equal(t, "/srv/app/.env", FormatDetails(decrypt))
	assert.Equal(t, ".env", FormatDetailsOneline(decrypt))
}

func TestDecryptDefaultPaths(t *testing.T) {
	tm := newTeam(t)
	tm.encrypt(t, tm.dir)

	result, err := Decrypt(context.Background(), DecryptOptions{
		EncPath:     filepath.Join(tm.dir, EncryptedEnvFileName),
		KeyFilePath: tm.alice.keyFile,
		Password:    tm.alice.password,
		Force:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tm.dir, DefaultEnvFileName), result.OutPath)
}

func TestStatus(t *testing.T) {
	tm := newTeam(t)
	root := filepath.Join(tm.dir, "repo")
	tm.encrypt(t, filepath.Join(root, "services", "api"))
	tm.encrypt(t, filepath.Join(root, "web"))

	broken := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	require.NoError(t, os.WriteFile(secrets.ManifestPath(broken), []byte("{"), 0644))

	ignored := filepath.Join(root, "node_modules", "pkg")
	require.NoError(t, os.MkdirAll(ignored, 0755))
	require.NoError(t, os.WriteFile(secrets.ManifestPath(ignored), []byte("{}"), 0644))

	result, err := Status(context.Background(), StatusOptions{Root: root, KeyFilePath: tm.bob.keyFile})
	require.NoError(t, err)

	assert.True(t, result.KeyFile.Present)
	assert.NoError(t, result.KeyFile.Err)
	assert.Equal(t, tm.bob.kf.PublicKey, result.KeyFile.PublicKey)
	assert.NotEmpty(t, result.KeyFile.Fingerprint)

	require.Len(t, result.Bundles, 3)
	assert.Equal(t, secrets.ManifestPath(broken), result.Bundles[0].ManifestPath)
	assert.Error(t, result.Bundles[0].Err)

	for _, bundle := range result.Bundles[1:] {
		assert.NoError(t, bundle.Err)
		assert.True(t, bundle.PayloadPresent)
		assert.True(t, bundle.Listed)
		assert.Equal(t, "proj-1", bundle.ProjectID)
		assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, bundle.Recipients)
	}
}

func TestStatusWithoutKeyFile(t *testing.T) {
	tm := newTeam(t)
	tm.encrypt(t, tm.dir)

	result, err := Status(context.Background(), StatusOptions{
		Root:        tm.dir,
		KeyFilePath: filepath.Join(tm.dir, "missing.enc.json"),
		Email:       "Bob@Example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.KeyFile.Present)
	require.Len(t, result.Bundles, 1)
	assert.True(t, result.Bundles[0].Listed, "email fallback ignores case")
}

func TestResolveKeyFilePath(t *testing.T) {
	assert.Equal(t, "explicit.json", ResolveKeyFilePath("explicit.json", "configured.json", "home.json"))
	assert.Equal(t, "configured.json", ResolveKeyFilePath("", "configured.json", "home.json"))

	chdir(t, t.TempDir())
	assert.Equal(t, "home.json", ResolveKeyFilePath("", "", "home.json"))

	require.NoError(t, os.WriteFile(secrets.DefaultKeyFileName, []byte("{}"), 0600))
	assert.Equal(t, secrets.DefaultKeyFileName, ResolveKeyFilePath("", "", "home.json"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
