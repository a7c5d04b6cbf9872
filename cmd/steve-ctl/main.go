package main

import (
	"fmt"
	"os"

	"steve/internal/ipc"
)

func main() {
	cmd := ipc.CmdStatus
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	resp, err := ipc.SendCommand(cmd)
	if err != nil {
		fmt.Println("steve-daemon not running:", err)
		os.Exit(1)
	}

	switch cmd {
	case ipc.CmdStatus:
		fmt.Println("state:        ", resp.State)
		fmt.Println("daily calls:  ", resp.DailyCalls)
		fmt.Println("hourly calls: ", resp.HourlyCalls)
		fmt.Printf("session cost:  $%.4f\n", resp.SessionCost)
	default:
		if resp.Detail != "" {
			fmt.Println(resp.Detail)
		}
	}

	if !resp.OK {
		os.Exit(1)
	}
}
