package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IMAGEFIT_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--log-level", "error"))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imagefit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  thumbnail: "60x60,C"
  banner:
    width: 300
    height: 100
    cropbox: true
    fill: "#000000"
`), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "imagefit "+Version)
	assert.Contains(t, out, "Git commit:")
}

func TestResolveCommand(t *testing.T) {
	out, err := execute(t, "", "resolve", "200x100,C", "200x100", "thumbnail", "-c", writeConfig(t))
	require.NoError(t, err)

	var got []resolved
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	assert.Equal(t, resolved{Size: "200x100,C", Width: 200, Height: 100, Strategy: "crop", Spec: "200x100,C"}, got[0])
	assert.Equal(t, "resize", got[1].Strategy)
	assert.True(t, got[2].Preset)
	assert.Equal(t, 60, got[2].Width)
	assert.Equal(t, "crop", got[2].Strategy)
}

func TestResolveCommand_Cropbox(t *testing.T) {
	out, err := execute(t, "", "resolve", "banner", "-c", writeConfig(t))
	require.NoError(t, err)

	var got []resolved
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cropbox", got[0].Strategy)
	assert.Equal(t, "#000000", got[0].Fill)
}

func TestResolveCommand_Invalid(t *testing.T) {
	_, err := execute(t, "", "resolve", "huge")
	assert.Error(t, err)

	_, err = execute(t, "", "resolve", "0x10")
	assert.Error(t, err)
}

func TestRenderCommand_ToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 400, 300)
	dst := filepath.Join(dir, "thumb.png")

	_, err := execute(t, "", "render", src, "100x100,C", "-o", dst)
	require.NoError(t, err)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestRenderCommand_Stdout(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 400, 300)

	out, err := execute(t, "", "render", src, "thumbnail", "-c", writeConfig(t))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestRenderCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 40, 30)

	_, err := execute(t, "", "render", src, "nonsense")
	assert.Error(t, err)

	_, err = execute(t, "", "render", filepath.Join(dir, "missing.png"), "10x10")
	assert.Error(t, err)

	_, err = execute(t, "", "render", src)
	assert.Error(t, err)
}

func TestMCPCommand(t *testing.T) {
	req := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n"
	out, err := execute(t, req, "mcp")
	require.NoError(t, err)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &resp))
	assert.Nil(t, resp["error"])
	result := resp["result"].(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "imagefit", info["name"])
}

func TestLoadConfigError(t *testing.T) {
	_, err := execute(t, "", "resolve", "10x10", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
