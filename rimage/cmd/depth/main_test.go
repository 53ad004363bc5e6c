package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/rimage"
)

func TestDepthMain(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()

	dm := rimage.NewEmptyDepthMap(3, 2)
	dm.Set(0, 0, 400)
	dm.Set(2, 1, 4000)
	in := filepath.Join(dir, "in.dat.gz")
	test.That(t, dm.WriteToFile(in), test.ShouldBeNil)

	app := newApp(logger)
	test.That(t, app.RunContext(context.Background(), []string{"depth"}), test.ShouldNotBeNil)
	test.That(t, app.RunContext(context.Background(), []string{"depth", in}), test.ShouldNotBeNil)

	pretty := filepath.Join(dir, "out.png")
	test.That(t, app.RunContext(context.Background(), []string{"depth", "--max", "5000", in, pretty}), test.ShouldBeNil)
	info, err := os.Stat(pretty)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	raw := filepath.Join(dir, "copy.dat")
	test.That(t, app.RunContext(context.Background(), []string{"depth", in, raw}), test.ShouldBeNil)
	back, err := rimage.ReadDepthMapFromFile(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, dm)

	err = render(in, pretty, 10, 5, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth range")
	test.That(t, render(filepath.Join(dir, "missing.dat"), pretty, 0, 100, logger), test.ShouldNotBeNil)
}
