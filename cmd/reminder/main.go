// Command reminder is an interactive REPL backed by an objectspace.Space:
// reminders are written as plain values and queried by range over their
// due time, or taken by exact id to mark them complete. Grounded on the
// upstream crate's reminder example; the REPL shell itself is built with
// cobra/pflag, the pack's only CLI-shaped stack.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/edirooss/objectspace/pkg/objectspace"
)

type reminder struct {
	ID      int64  `json:"id"`
	Time    int64  `json:"time"` // unix seconds
	Content string `json:"content"`
}

func (r reminder) String() string {
	return fmt.Sprintf("reminder id: %d, content: %s, remind time: %s",
		r.ID, r.Content, time.Unix(r.Time, 0).UTC().Format(time.RFC3339))
}

type store struct {
	space   *objectspace.Space
	counter int64
}

func newStore() *store {
	return &store{space: objectspace.NewSpace()}
}

func (s *store) addReminder(at time.Time, content string) error {
	id := atomic.AddInt64(&s.counter, 1) - 1
	return objectspace.Write(s.space, reminder{ID: id, Time: at.Unix(), Content: content})
}

func (s *store) completeReminder(id int64) (reminder, bool, error) {
	return objectspace.TryTakeKey[reminder](s.space, "id", id)
}

func (s *store) allTodo() ([]reminder, error) {
	return objectspace.ReadAllRange[reminder](s.space, "time", objectspace.AtLeast(time.Now().Unix()))
}

func (s *store) allOutdated() ([]reminder, error) {
	return objectspace.ReadAllRange[reminder](s.space, "time", objectspace.Before(time.Now().Unix()))
}

func (s *store) next() (reminder, bool, error) {
	todo, err := s.allTodo()
	if err != nil || len(todo) == 0 {
		return reminder{}, false, err
	}
	best := todo[0]
	for _, r := range todo[1:] {
		if r.Time < best.Time {
			best = r
		}
	}
	return best, true, nil
}

// checkDue runs in the background, announcing reminders whose time falls
// within the next minute, mirroring the upstream example's check_reminder
// loop.
func (s *store) checkDue(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			due, err := objectspace.ReadAllRange[reminder](s.space, "time",
				objectspace.Between(now.Unix(), now.Add(time.Minute).Unix()))
			if err != nil {
				continue
			}
			for _, r := range due {
				fmt.Println()
				fmt.Println(r)
				fmt.Print(">>> ")
			}
		}
	}
}

func main() {
	s := newStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.checkDue(ctx)

	root := &cobra.Command{
		Use:   "reminder",
		Short: "A reminder REPL backed by an in-process object space",
		Run: func(cmd *cobra.Command, args []string) {
			runREPL(s)
		},
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runREPL(s *store) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit":
			fmt.Println("Exiting")
			return
		case "add":
			requestReminderInfo(s, scanner)
		case "complete":
			if len(fields) < 2 {
				fmt.Println("Please provide reminder id")
				continue
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("Please provide reminder id")
				continue
			}
			s.completeReminder(id)
		case "all":
			all, err := s.allTodo()
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, r := range all {
				fmt.Println(r)
			}
		case "next":
			r, ok, err := s.next()
			if err != nil {
				fmt.Println("error:", err)
			} else if !ok {
				fmt.Println("There is no reminder here")
			} else {
				fmt.Println(r)
			}
		case "outdated":
			all, err := s.allOutdated()
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, r := range all {
				fmt.Println(r)
			}
		default:
			fmt.Printf("Unrecognizable command: %s\n", scanner.Text())
		}
	}
}

func requestReminderInfo(s *store, scanner *bufio.Scanner) {
	fmt.Print("Reminder content: ")
	if !scanner.Scan() {
		fmt.Println("Cannot read input")
		return
	}
	content := scanner.Text()

	fmt.Print("Minutes to remind: ")
	if !scanner.Scan() {
		fmt.Println("Cannot read input")
		return
	}
	minutes, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
	if err != nil {
		fmt.Println("Please provide numeric minutes to remind")
		return
	}

	at := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := s.addReminder(at, strings.TrimSpace(content)); err != nil {
		fmt.Println("error:", err)
	}
}
