package unusedvars

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// benchJSSource is a realistic JavaScript module with closures, classes,
// destructuring and a few unused bindings.
const benchJSSource = `/* global window */
import { EventEmitter } from "events";
import path from "path";

const DEFAULTS = { retries: 3, timeout: 1000 };

export class Client extends EventEmitter {
  constructor(options) {
    super();
    const { retries, timeout, ...rest } = { ...DEFAULTS, ...options };
    this.retries = retries;
    this.timeout = timeout;
    this.extra = rest;
  }

  async request(url, body, unusedFlag) {
    let attempt = 0;
    while (attempt < this.retries) {
      try {
        return await fetch(url, { method: "POST", body });
      } catch (err) {
        attempt++;
        this.emit("retry", attempt);
      }
    }
    throw new Error("gave up on " + url);
  }
}

function debounce(fn, wait) {
  let timer = null;
  return function debounced(...args) {
    clearTimeout(timer);
    timer = setTimeout(() => fn.apply(this, args), wait);
  };
}

function unusedHelper(a, b, c) {
  var scratch = a * b;
  for (let i = 0; i < c; i++) {
    var tmp = i;
  }
  return arguments.length;
}

export const onResize = debounce((event) => {
  const { innerWidth: width, innerHeight } = window;
  console.log(width);
}, 100);

switch (process.env.MODE) {
  case "dev": {
    let verbose = true;
    break;
  }
  default:
    console.log("prod");
}
`

func writeBenchSource(b *testing.B, dir string) string {
	b.Helper()
	srcPath := filepath.Join(dir, "bench.js")
	if err := os.WriteFile(srcPath, []byte(benchJSSource), 0644); err != nil {
		b.Fatal(err)
	}
	return srcPath
}

// setupBenchEngine creates an Engine with benchJSSource already indexed.
// Caller must close the engine.
func setupBenchEngine(b *testing.B) *Engine {
	b.Helper()
	dir := b.TempDir()
	e, err := New(filepath.Join(dir, "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	if err := e.IndexFiles(context.Background(), []string{writeBenchSource(b, dir)}); err != nil {
		e.Close()
		b.Fatal(err)
	}
	return e
}

// BenchmarkIndexFiles measures resolving and storing one file in a fresh
// database.
func BenchmarkIndexFiles(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		dir := b.TempDir()
		e, err := New(filepath.Join(dir, "bench.db"))
		if err != nil {
			b.Fatal(err)
		}
		srcPath := writeBenchSource(b, dir)
		b.StartTimer()

		if err := e.IndexFiles(ctx, []string{srcPath}); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkAnalyze measures loading a stored tree, checking it and
// replacing its findings.
func BenchmarkAnalyze(b *testing.B) {
	e := setupBenchEngine(b)
	defer e.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Analyze(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCheckSource measures the in-memory path: parse, resolve and
// check with nothing stored.
func BenchmarkCheckSource(b *testing.B) {
	e := setupBenchEngine(b)
	defer e.Close()
	ctx := context.Background()
	src := []byte(benchJSSource)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.CheckSource(ctx, "bench.js", src); err != nil {
			b.Fatal(err)
		}
	}
}
