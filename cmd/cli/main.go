package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rollcall/pkg/client"
	"rollcall/pkg/common"
)

const Prompt = "rollcall> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "rollcall TCP server address")
	flag.Parse()

	fmt.Printf("rollcall CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run ./cmd/server).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "enroll", "add":
			handleEnroll(cli, parts)
		case "get":
			handleGet(cli, parts)
		case "del", "rm":
			handleDel(cli, parts)
		case "list", "ls":
			handleList(cli)
		case "roll":
			handleRoll(cli, parts)
		case "div":
			handleDivision(cli, parts)
		case "name":
			handleName(cli, parts)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handleEnroll(cli *client.Client, parts []string) {
	if len(parts) < 5 {
		fmt.Println("Usage: enroll <enrollment_no> <roll_no> <division_id> <name...>")
		return
	}

	roll, err1 := strconv.Atoi(parts[2])
	div, err2 := strconv.ParseInt(parts[3], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Println("Error: roll_no and division_id must be integers")
		return
	}

	rec := common.StudentRecord{
		EnrollmentNo: parts[1],
		RollNo:       roll,
		DivisionID:   div,
		Name:         strings.Join(parts[4:], " "),
	}

	start := time.Now()
	err := cli.Enroll(rec)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("OK (%v)\n", duration)
	}
}

func handleGet(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: get <enrollment_no>")
		return
	}

	start := time.Now()
	rec, err := cli.Get(parts[1])
	duration := time.Since(start)

	if errors.Is(err, client.ErrNotFound) {
		fmt.Printf("Student not found (%v)\n", duration)
	} else if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("%s (%v)\n", rec, duration)
	}
}

func handleDel(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: del <enrollment_no>")
		return
	}

	start := time.Now()
	err := cli.Withdraw(parts[1])
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("Withdrawn (%v)\n", duration)
	}
}

func handleList(cli *client.Client) {
	start := time.Now()
	recs, err := cli.List()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printRecords(recs, time.Since(start))
}

func handleRoll(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: roll <roll_no>")
		return
	}
	roll, err := strconv.Atoi(parts[1])
	if err != nil {
		fmt.Println("Error: roll_no must be an integer")
		return
	}

	start := time.Now()
	rec, err := cli.FindByRoll(roll)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("%s (%v)\n", rec, duration)
	}
}

func handleDivision(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: div <division_id>")
		return
	}
	div, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("Error: division_id must be an integer")
		return
	}

	start := time.Now()
	recs, err := cli.FindByDivision(div)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printRecords(recs, time.Since(start))
}

func handleName(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: name <text>")
		return
	}

	start := time.Now()
	recs, err := cli.FindByName(strings.Join(parts[1:], " "))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printRecords(recs, time.Since(start))
}

func printRecords(recs []common.StudentRecord, duration time.Duration) {
	fmt.Printf("Found %d students (%v):\n", len(recs), duration)
	for i, rec := range recs {
		if i >= 20 {
			fmt.Printf("... and %d more\n", len(recs)-20)
			break
		}
		fmt.Printf("  %s\n", rec)
	}
}

func printHelp() {
	fmt.Println(`
Commands:
  enroll <no> <roll> <div> <name>   Enroll a student
  get <no>                          Look up by enrollment number
  del <no>                          Withdraw a student
  list                              All students in enrollment order
  roll <roll_no>                    First student with that roll number
  div <division_id>                 Students in a division
  name <text>                       Case-insensitive name search
  exit                              Exit CLI
	`)
}
