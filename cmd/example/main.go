package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"rollcall/pkg/client"
	"rollcall/pkg/common"
)

func main() {
	fmt.Println("Connecting to rollcall...")
	cli, err := client.Dial("localhost:9090")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	rec := common.StudentRecord{
		EnrollmentNo: "E2024001",
		RollNo:       1,
		Name:         "Asha Patil",
		DivisionID:   1,
	}

	fmt.Printf("Enrolling: %s\n", rec)
	start := time.Now()
	if err := cli.Enroll(rec); err != nil {
		log.Fatalf("Enroll failed: %v", err)
	}
	fmt.Printf("Enroll done in %v\n", time.Since(start))

	fmt.Printf("Looking up %s...\n", rec.EnrollmentNo)
	start = time.Now()
	got, err := cli.Get(rec.EnrollmentNo)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	fmt.Printf("Got: %s (in %v)\n", got, time.Since(start))

	if err := cli.Withdraw(rec.EnrollmentNo); err != nil {
		log.Fatalf("Withdraw failed: %v", err)
	}
	if _, err := cli.Get(rec.EnrollmentNo); errors.Is(err, client.ErrNotFound) {
		fmt.Println("Withdrawn; lookup now reports not found")
	}
}
