// Command fiberdemo runs a handful of small scenarios exercising the
// scheduler, its pluggable algorithms, and the synchronization primitives:
// ping-pong over a pair of channels, a 10-way barrier, a bounded producer/consumer,
// and a sleep-fairness check across several fibers.
package main

import (
	"fmt"
	"time"

	fiber "github.com/joeycumines/fiberrt"
)

func main() {
	fmt.Println("== ping-pong ==")
	pingPong()

	fmt.Println("== barrier ==")
	barrierDemo()

	fmt.Println("== producer/consumer ==")
	producerConsumer()

	fmt.Println("== sleep fairness ==")
	sleepFairness()
}

func pingPong() {
	fiber.Run(func(s fiber.Sched) {
		ping := fiber.NewChannel[string](1)
		pong := fiber.NewChannel[string](1)
		done := fiber.Spawn(s, func(s fiber.Sched) int {
			for i := 0; i < 4; i++ {
				v, err := ping.Recv(s)
				if err != nil {
					return i
				}
				fmt.Println("pong got:", v)
				_ = pong.Send(s, "pong")
			}
			return 4
		})
		for i := 0; i < 4; i++ {
			_ = ping.Send(s, "ping")
			v, _ := pong.Recv(s)
			fmt.Println("ping got:", v)
		}
		_ = ping.Close(s)
		n, err := done.Join(s)
		fmt.Println("rounds:", n, "err:", err)
	})
}

func barrierDemo() {
	fiber.Run(func(s fiber.Sched) {
		const n = 10
		b := fiber.NewBarrier(n)
		handles := make([]*fiber.Handle[int], 0, n-1)
		for i := 1; i < n; i++ {
			i := i
			handles = append(handles, fiber.Spawn(s, func(s fiber.Sched) int {
				s.SleepFor(time.Duration(i) * time.Microsecond)
				leader := b.Wait(s)
				if leader {
					return 1
				}
				return 0
			}))
		}
		leader := b.Wait(s)
		total := 0
		if leader {
			total++
		}
		for _, h := range handles {
			v, _ := h.Join(s)
			total += v
		}
		fmt.Println("exactly one leader:", total == 1)
	})
}

func producerConsumer() {
	fiber.Run(func(s fiber.Sched) {
		ch := fiber.NewChannel[int](4)
		const count = 20
		producer := fiber.Spawn(s, func(s fiber.Sched) int {
			for i := 0; i < count; i++ {
				_ = ch.Send(s, i)
			}
			_ = ch.Close(s)
			return count
		})
		sum := 0
		consumer := fiber.Spawn(s, func(s fiber.Sched) int {
			total := 0
			for {
				v, err := ch.Recv(s)
				if err != nil {
					break
				}
				total += v
			}
			return total
		})
		_, _ = producer.Join(s)
		sum, _ = consumer.Join(s)
		fmt.Println("sum:", sum)
	})
}

func sleepFairness() {
	fiber.Run(func(s fiber.Sched) {
		const n = 5
		order := make(chan int, n)
		handles := make([]*fiber.Handle[struct{}], n)
		for i := 0; i < n; i++ {
			i := i
			handles[i] = fiber.Spawn(s, func(s fiber.Sched) struct{} {
				s.SleepFor(time.Duration(n-i) * time.Millisecond)
				order <- i
				return struct{}{}
			})
		}
		for _, h := range handles {
			h.Join(s)
		}
		close(order)
		fmt.Print("wake order:")
		for v := range order {
			fmt.Print(" ", v)
		}
		fmt.Println()
	})
}
