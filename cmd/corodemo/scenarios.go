package main

import (
	"fmt"
	"os"

	"github.com/PlumpMath/coroo"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

func newStartThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-thread",
		Short: "Spawn a single fiber that does nothing and exits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			rt := coroo.New()
			rt.Spawn(cfg.DefaultStackSize, func(any) {}, nil)
			fmt.Println("spawned fiber ran to completion")
			fmt.Printf("stats: %+v\n", rt.Stats())
			return nil
		},
	}
}

// waitUntil drives the scheduler from outside any fiber of interest: the
// runtime exposes no "run until everything settles" entry point, since
// the readiness multiplexer only ever runs as a side effect of some
// fiber's own Poll/Exit call (Yield re-queues its caller first, so it never
// finds the ready list empty). A caller that wants to observe a
// fiber's result has to keep the scheduler busy itself, in small timed
// slices, until that fiber signals completion.
func waitUntil(rt *coroo.Runtime, done *bool) {
	for !*done {
		rt.PollOne(-1, 0, 5)
	}
}

func newBasicPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basic-poll",
		Short: "Spawn a fiber that blocks in Poll until the main fiber writes to a pipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			r, w, err := os.Pipe()
			if err != nil {
				return err
			}
			defer r.Close()
			defer w.Close()

			rt := coroo.New()
			done := false
			rt.Spawn(cfg.DefaultStackSize, func(any) {
				ev := rt.PollOne(int(r.Fd()), coroo.PollIn, -1)
				fmt.Printf("fiber woke with events: %v\n", ev)
				buf := make([]byte, 16)
				n, _ := unix.Read(int(r.Fd()), buf)
				fmt.Printf("fiber read %q\n", buf[:n])
				done = true
			}, nil)

			if _, err := w.Write([]byte("hello")); err != nil {
				return err
			}
			waitUntil(rt, &done)
			return nil
		},
	}
}

func newBasicPollTimeoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basic-poll-timeout",
		Short: "Spawn a fiber that polls a pipe that is never written to, and times out",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			r, w, err := os.Pipe()
			if err != nil {
				return err
			}
			defer r.Close()
			defer w.Close()

			rt := coroo.New()
			done := false
			rt.Spawn(cfg.DefaultStackSize, func(any) {
				ev := rt.PollOne(int(r.Fd()), coroo.PollIn, 50)
				fmt.Printf("fiber woke with events: %v (0 means timed out)\n", ev)
				done = true
			}, nil)

			waitUntil(rt, &done)
			return nil
		},
	}
}

func newFastYieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fast-yield",
		Short: "Spawn several fibers that repeatedly yield, proving FIFO fairness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			rt := coroo.New()
			const rounds = 3
			order := make([]int, 0, rounds*3)

			for i := 0; i < 3; i++ {
				id := i
				rt.Spawn(cfg.DefaultStackSize, func(any) {
					for round := 0; round < rounds; round++ {
						order = append(order, id)
						rt.Yield()
					}
				}, nil)
			}
			fmt.Printf("yield order: %v\n", order)
			return nil
		},
	}
}

func newChainStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain-start",
		Short: "Each fiber spawns the next one in a chain, demonstrating nested Spawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			rt := coroo.New()
			const depth = 4

			var spawnNext func(level int)
			spawnNext = func(level int) {
				fmt.Printf("fiber at depth %d running\n", level)
				if level < depth {
					rt.Spawn(cfg.DefaultStackSize, func(any) {
						spawnNext(level + 1)
					}, nil)
				}
			}
			rt.Spawn(cfg.DefaultStackSize, func(any) {
				spawnNext(1)
			}, nil)
			fmt.Printf("stats: %+v\n", rt.Stats())
			return nil
		},
	}
}

// newBufioTunnelCmd wraps one end of a connected socket pair in a BufIO
// adapter and has it echo everything it receives straight back out, with
// the whole pipeline driven by a real fiber blocked in Runtime.Poll — not
// by hand-setting Revents. The other end of the pair is read/written
// directly, standing in for an external peer.
func newBufioTunnelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bufio-tunnel",
		Short: "Echo bytes through a BufIO adapter over a real connected socket, driven by Runtime.Poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()

			fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
			if err != nil {
				return err
			}
			serverFd, clientFd := fds[0], fds[1]
			defer unix.Close(serverFd)
			defer unix.Close(clientFd)
			if err := unix.SetNonblock(serverFd, true); err != nil {
				return err
			}
			if err := unix.SetNonblock(clientFd, true); err != nil {
				return err
			}

			payload := []byte("the quick brown fox jumps over the lazy dog")
			if _, err := unix.Write(clientFd, payload); err != nil {
				return err
			}

			rt := coroo.New()
			done := false

			rt.Spawn(cfg.DefaultStackSize, func(any) {
				desc := &coroo.PollFD{Fd: serverFd}
				server := coroo.NewBufIO(cfg.InternalBufferSize, desc)

				for i := 0; i < 1000; i++ {
					probe := []coroo.PollFD{*desc}
					rt.Poll(probe, 1000)
					desc.Revents = probe[0].Revents

					server.Update()
					server.Tunnel(server) // echo inbound straight back out
					if ev := server.Update(); ev != 0 {
						break
					}

					buf := make([]byte, 64)
					n, _ := unix.Read(clientFd, buf)
					if n >= len(payload) {
						fmt.Printf("echoed %d bytes: %q\n", n, buf[:n])
						break
					}
				}
				done = true
			}, nil)
			waitUntil(rt, &done)
			return nil
		},
	}
}
