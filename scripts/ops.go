// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ops 是開發用的任務入口，取代 Makefile：
//
//	go run ./scripts test
//	go run ./scripts test-race
//	go run ./scripts cover
//	go run ./scripts serve
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

type task struct {
	desc string
	// clean 為 true 時先清 test cache
	clean bool
	args  []string
	// filter 為 true 時只印出 ok/FAIL 摘要行
	filter bool
}

var tasks = map[string]task{
	"test":      {desc: "run all tests, summary only", clean: true, args: []string{"test", "./...", "-cover", "-count=1"}, filter: true},
	"test-race": {desc: "run all tests with the race detector", clean: true, args: []string{"test", "./...", "-race", "-count=1"}, filter: true},
	"cover":     {desc: "run all tests with coverage, full output", clean: true, args: []string{"test", "./...", "-cover"}},
	"detail":    {desc: "verbose tests", clean: true, args: []string{"test", "./...", "-v", "-count=1"}},
	"serve":     {desc: "start the experiment server with defaults", args: []string{"run", "./cmd/svr"}},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		failColor.Printf("unknown task: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := runTask(os.Args[1], t); err != nil {
		failColor.Printf("\n%s finished with errors: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task]")
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-10s %s\n", n, tasks[n].desc)
	}
}

func runTask(name string, t task) error {
	infoColor.Printf("running %s\n", name)
	if t.clean {
		clean := exec.Command("go", "clean", "-testcache")
		clean.Stdout, clean.Stderr = os.Stdout, os.Stderr
		if err := clean.Run(); err != nil {
			return err
		}
	}

	cmd := exec.Command("go", t.args...)
	cmd.Stdin = os.Stdin
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		printLine(sc.Text(), t.filter)
	}
	return cmd.Wait()
}

func printLine(line string, filter bool) {
	switch {
	case strings.Contains(line, "[no test files]"):
	case strings.HasPrefix(line, "ok"):
		okColor.Println(line)
	case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
		failColor.Println(line)
	case !filter:
		fmt.Println(line)
	}
}
