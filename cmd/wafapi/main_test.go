package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plexusone/wafhttpapi-aws-cdk/wafhttpapi"
)

func TestCdkArgs(t *testing.T) {
	require.Equal(t, []string{"diff"}, cdkArgs(true, "", ""))
	require.Equal(t,
		[]string{"deploy", "--require-approval", "never", "-c", "config=config.yaml", "-c", "secretHeaderValue=abc"},
		cdkArgs(false, "config.yaml", "abc"),
	)
}

func TestResolveRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	region := func(o *globalOptions) string {
		t.Helper()
		r, err := o.resolveRegion()
		require.NoError(t, err)
		return r
	}

	require.Equal(t, "us-east-1", region(&globalOptions{}))

	t.Setenv("AWS_DEFAULT_REGION", "us-west-2")
	require.Equal(t, "us-west-2", region(&globalOptions{}))

	t.Setenv("AWS_REGION", "eu-west-1")
	require.Equal(t, "eu-west-1", region(&globalOptions{}))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stackName: edge-api\nregion: us-east-1\n"), 0o600))
	require.Equal(t, "us-east-1", region(&globalOptions{configFile: path}))

	require.Equal(t, "ap-south-1", region(&globalOptions{region: "ap-south-1", configFile: path}))

	_, err := (&globalOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")}).resolveRegion()
	require.Error(t, err)
}

func TestDeployRejectsNonCloudFrontRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	root := newRootCmd()
	root.SetArgs([]string{"deploy", "--dry-run"})
	err := root.Execute()
	require.ErrorContains(t, err, "must be deployed to us-east-1")
}

func TestResolveStackName(t *testing.T) {
	name, err := (&globalOptions{}).resolveStackName()
	require.NoError(t, err)
	require.Equal(t, wafhttpapi.DefaultStackName, name)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stackName":"edge-api"}`), 0o600))
	name, err = (&globalOptions{configFile: path}).resolveStackName()
	require.NoError(t, err)
	require.Equal(t, "edge-api", name)

	name, err = (&globalOptions{configFile: path, stackName: "explicit"}).resolveStackName()
	require.NoError(t, err)
	require.Equal(t, "explicit", name)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := newRootCmd()
	root.SetArgs([]string{"init", path})
	require.NoError(t, root.Execute())

	cfg, err := wafhttpapi.LoadStackConfigFromFile(path)
	require.NoError(t, err)
	require.Equal(t, wafhttpapi.DefaultStackName, cfg.StackName)

	root = newRootCmd()
	root.SetArgs([]string{"init", path})
	require.ErrorContains(t, root.Execute(), "already exists")

	root = newRootCmd()
	root.SetArgs([]string{"init", "--force", path})
	require.NoError(t, root.Execute())
}
