package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/services/vault"
	"github.com/TheMichaelB/credvault/internal/storage"
	"github.com/TheMichaelB/credvault/test/testutil"
)

var benchStores = []struct {
	name  string
	file  string
	store func() storage.Store
}{
	{"lines", "vault.txt", func() storage.Store { return storage.NewLineStore(testutil.NewTestLogger()) }},
	{"json", "vault.json", func() storage.Store { return storage.NewJSONStore(testutil.NewTestLogger(), false) }},
	{"sqlite", "vault.db", func() storage.Store { return storage.NewSQLiteStore(testutil.NewTestLogger()) }},
}

func benchVault(n int) *models.Vault {
	records := make([]models.CredentialRecord, n)
	for i := range records {
		records[i] = models.CredentialRecord{
			Username: fmt.Sprintf("user%05d", i),
			Secret:   testutil.AliceAES,
		}
	}
	return &models.Vault{
		Header: &models.VaultHeader{
			ID:            "bench",
			SchemaVersion: models.CurrentSchemaVersion,
			Scheme:        models.SchemeLegacy,
			Cipher:        models.CipherAES,
			CreatedAt:     time.Now().UTC(),
		},
		Records: records,
	}
}

func BenchmarkStoreWrite(b *testing.B) {
	for _, s := range benchStores {
		for _, n := range []int{10, 100, 1000} {
			b.Run(fmt.Sprintf("%s/%d", s.name, n), func(b *testing.B) {
				store := s.store()
				v := benchVault(n)
				path := filepath.Join(b.TempDir(), s.file)

				b.ResetTimer()
				b.ReportAllocs()

				for i := 0; i < b.N; i++ {
					if err := store.Write(v, path); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkStoreRead(b *testing.B) {
	for _, s := range benchStores {
		for _, n := range []int{10, 100, 1000} {
			b.Run(fmt.Sprintf("%s/%d", s.name, n), func(b *testing.B) {
				store := s.store()
				path := filepath.Join(b.TempDir(), s.file)
				if err := store.Write(benchVault(n), path); err != nil {
					b.Fatal(err)
				}

				b.ResetTimer()
				b.ReportAllocs()

				for i := 0; i < b.N; i++ {
					if _, err := store.Read(path); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkSaveRetrieve(b *testing.B) {
	gate, err := vault.NewGate(testutil.GateSecret)
	if err != nil {
		b.Fatal(err)
	}
	svc := vault.NewService(gate, vault.Options{}, testutil.NewTestLogger())
	creds := testutil.GenerateCredentials(100, 16)
	path := filepath.Join(b.TempDir(), "vault.txt")
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Save(ctx, vault.SaveRequest{Credentials: creds, Cipher: "AES", Path: path}); err != nil {
			b.Fatal(err)
		}
		if _, err := svc.Retrieve(ctx, vault.RetrieveRequest{
			Cipher: "AES", Path: path, Unlock: true, Candidate: testutil.GateSecret,
		}); err != nil {
			b.Fatal(err)
		}
	}
}
