package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-specs/specs/internal/db"
	"github.com/oss-specs/specs/internal/parser"
)

const loginFeature = `@web
Feature: Login
  Background:
    Given a registered user

  @smoke
  Scenario: User logs in
    Given the user is on the login page
    When  the user enters valid credentials
    Then  the user sees the dashboard

  Scenario: User fails login
    Given the user is on the login page
    When  the user enters wrong credentials
    Then  the user sees an error
`

const checkoutFeature = `Feature: Checkout
  @slow
  Scenario Outline: User pays in <currency>
    Given a cart in <currency>

    Examples:
      | currency |
      | EUR      |
`

func runSync(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunSync(context.Background(), &buf, testConfig()))
	return buf.String()
}

func openTestStore(t *testing.T) *db.Store {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join("features", "specs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db.NewStore(sqlDB)
}

func TestSync_RegistersNewFile(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.feature", loginFeature)

	out := runSync(t)
	assert.Contains(t, out, "new  "+filepath.Join("features", "login.feature"))
	assert.Contains(t, out, "synced 1 files")

	scenarios, err := openTestStore(t).Scenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, parser.TokenBackground, scenarios[0].Token)
	assert.Equal(t, "User logs in", scenarios[1].Name)
	assert.Equal(t, []string{"@web", "@smoke"}, scenarios[1].Tags)
}

func TestSync_MultipleFiles(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.feature", loginFeature)
	writeFeature(t, "checkout.feature", checkoutFeature)

	out := runSync(t)
	assert.Contains(t, out, "new  "+filepath.Join("features", "login.feature"))
	assert.Contains(t, out, "new  "+filepath.Join("features", "checkout.feature"))
	assert.Contains(t, out, "synced 2 files")
}

func TestSync_SecondSyncUpdates(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.feature", loginFeature)
	runSync(t)

	out := runSync(t)
	assert.Contains(t, out, "upd  "+filepath.Join("features", "login.feature"))

	scenarios, err := openTestStore(t).Scenarios(context.Background())
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)
}

func TestSync_PrunesDeletedFiles(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.feature", loginFeature)
	writeFeature(t, "checkout.feature", checkoutFeature)
	runSync(t)

	require.NoError(t, os.Remove(filepath.Join("features", "checkout.feature")))
	out := runSync(t)
	assert.Contains(t, out, "del  "+filepath.Join("features", "checkout.feature"))

	scenarios, err := openTestStore(t).Scenarios(context.Background())
	require.NoError(t, err)
	for _, sc := range scenarios {
		assert.Equal(t, filepath.Join("features", "login.feature"), sc.Path)
	}
}

func TestSync_NoFeatureFiles(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runSync(t)
	assert.Contains(t, out, "synced 0 files")
}

func TestSync_RecordsRun(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.feature", loginFeature)
	runSync(t)

	run, err := openTestStore(t).LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Files)
}

func TestSync_ParseErrorNamesFileAndLine(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "broken.feature", "Feature: Broken\n  Scenario: s\n    Given x\n      | a |\n      | b\n")

	var buf bytes.Buffer
	err := RunSync(context.Background(), &buf, testConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrMalformedTableRow)
	assert.Contains(t, err.Error(), "broken.feature")
	assert.Contains(t, err.Error(), "line 5")
}

func TestSync_RequiresInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunSync(context.Background(), &buf, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `specs init` first")
}

func TestSync_OtherLanguage(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "connexion.feature", `Fonctionnalité: Connexion
  Scénario: Se connecter
    Soit un utilisateur
    Quand il se connecte
`)

	c := testConfig()
	c.Language = "fr"
	var buf bytes.Buffer
	require.NoError(t, RunSync(context.Background(), &buf, c))

	scenarios, err := openTestStore(t).Scenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Se connecter", scenarios[0].Name)
	assert.Equal(t, 2, scenarios[0].Steps)
}
