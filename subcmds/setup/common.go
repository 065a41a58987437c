// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"errors"
	"flag"
	"os"

	"github.com/bvk/orderbot/config"
)

type secretsFlags struct {
	secretsFile string
	skipTesting bool
}

func (f *secretsFlags) setFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.secretsFile, "secrets-file", "", "path to the secrets file (defaults to ORDERBOT_SECRETS_FILE)")
	fset.BoolVar(&f.skipTesting, "skip-testing", false, "don't test the parameters")
}

// load returns the secrets file path and it's current contents. Missing file
// is not an error.
func (f *secretsFlags) load() (string, *config.Secrets, error) {
	fpath := f.secretsFile
	if fpath == "" {
		s, err := config.Load()
		if err != nil {
			return "", nil, err
		}
		fpath = s.SecretsFile
	}
	secrets, err := config.ReadSecrets(fpath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
		secrets = new(config.Secrets)
	}
	return fpath, secrets, nil
}
