package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"mesh-explorer-be/pkg/explorer"
	"mesh-explorer-be/pkg/protocol"
	"mesh-explorer-be/pkg/session"

	"github.com/fatih/color"
)

var (
	stepColor   = color.New(color.FgCyan)
	answerColor = color.New(color.FgGreen, color.Bold)
	errColor    = color.New(color.FgRed)
)

func main() {
	baseURL := flag.String("server", "http://localhost:3000", "exploration server base URL")
	meshPath := flag.String("mesh", "", "path to a mesh JSON file (vertices + faces)")
	name := flag.String("name", "cli session", "session name")
	prompt := flag.String("prompt", "", "initial prompt (defaults to a generic description request)")
	flag.Parse()

	if *meshPath == "" {
		log.Fatal("usage: explore -mesh mesh.json [-server URL] [-name NAME] [-prompt TEXT]")
	}

	mesh, err := loadMesh(*meshPath)
	if err != nil {
		log.Fatalf("failed to load mesh: %v", err)
	}

	ctx := context.Background()
	client := explorer.NewClient(*baseURL, "")

	userId, _, err := client.CreateAccount(ctx)
	if err != nil {
		log.Fatalf("failed to create account: %v", err)
	}
	fmt.Printf("account %s\n", userId)

	sessionId, err := client.CreateSession(ctx, *name, mesh)
	if err != nil {
		log.Fatalf("failed to upload mesh: %v", err)
	}
	fmt.Printf("session %s (%d vertices, %d faces)\n", sessionId, len(mesh.Vertices), len(mesh.Faces))

	done := make(chan struct{}, 1)

	exp := explorer.New(client, session.NewWebsocketDialer(), nil, nil)
	exp.OnProgress = func(ev protocol.ProgressEvent) {
		line := string(ev.Step)
		if ev.Explanation != "" {
			line += "  " + ev.Explanation
		}
		stepColor.Println("  " + line)
	}
	exp.OnPhase = func(phase protocol.Phase) {
		if phase == protocol.PhaseQueryDone {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}
	exp.OnTranscript = func(messages []protocol.ChatMessage) {
		if len(messages) == 0 {
			return
		}
		last := messages[len(messages)-1]
		if last.Role == protocol.RoleAssistant {
			answerColor.Println(last.Text)
		}
	}
	exp.OnError = func(kind session.ErrorKind, message string) {
		errColor.Printf("error (%s): %s\n", kind, message)
		select {
		case done <- struct{}{}:
		default:
		}
	}

	if err := exp.Open(ctx, sessionId, explorer.OpenOptions{Fresh: true, InitialPrompt: *prompt}); err != nil {
		log.Fatalf("failed to open session: %v", err)
	}
	defer exp.Close()

	// Wait for the automatic segment+query chain to finish.
	<-done

	fmt.Println("ask away (empty line to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			return
		}
		exp.Ask(query)
		<-done
	}
}

func loadMesh(path string) (*protocol.SurfaceMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mesh protocol.SurfaceMesh
	if err := json.Unmarshal(data, &mesh); err != nil {
		return nil, err
	}
	if mesh.IsEmpty() {
		return nil, fmt.Errorf("mesh %s has no geometry", path)
	}
	return &mesh, nil
}
