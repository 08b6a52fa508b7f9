package secret

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Vault is the durable credential store: one entry per application-scoped
// target name. On this platform it is a 0600 TOML file whose values are
// sealed blobs, so tokens never touch disk in plaintext. It is independent
// of the sealed tokens embedded in monitor configs.
type Vault struct {
	path  string
	store *Store
}

// ErrNotFound is returned by Load for an unknown target name.
var ErrNotFound = errors.New("secret: credential not found")

type vaultFile struct {
	Entries map[string]string `toml:"entries"` // target name -> base64 sealed blob
}

// OpenVault binds a vault file to a sealing store, creating the parent
// directory as needed.
func OpenVault(path string, store *Store) (*Vault, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &Vault{path: path, store: store}, nil
}

// Save seals token and writes it under targetName, replacing any previous
// entry.
func (v *Vault) Save(targetName, token string) error {
	blob, err := v.store.Seal([]byte(token))
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}

	file, err := v.read()
	if err != nil {
		return err
	}
	file.Entries[targetName] = base64.StdEncoding.EncodeToString(blob)
	return v.write(file)
}

// Load returns the token stored under targetName, or ErrNotFound.
func (v *Vault) Load(targetName string) (string, error) {
	file, err := v.read()
	if err != nil {
		return "", err
	}
	encoded, ok := file.Entries[targetName]
	if !ok {
		return "", ErrNotFound
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptFailed
	}
	plaintext, err := v.store.Unseal(blob)
	if err != nil {
		return "", err
	}
	token := string(plaintext)
	Wipe(plaintext)
	return token, nil
}

// Delete removes the entry for targetName. Deleting an absent entry is not
// an error.
func (v *Vault) Delete(targetName string) error {
	file, err := v.read()
	if err != nil {
		return err
	}
	if _, ok := file.Entries[targetName]; !ok {
		return nil
	}
	delete(file.Entries, targetName)
	return v.write(file)
}

func (v *Vault) read() (vaultFile, error) {
	file := vaultFile{Entries: map[string]string{}}
	raw, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("read vault: %w", err)
	}
	if err := toml.Unmarshal(raw, &file); err != nil {
		return file, fmt.Errorf("decode vault: %w", err)
	}
	if file.Entries == nil {
		file.Entries = map[string]string{}
	}
	return file, nil
}

func (v *Vault) write(file vaultFile) error {
	raw, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}
	if err := os.WriteFile(v.path, raw, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}
