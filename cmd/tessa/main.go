package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	tutoring "github.com/tesslearn/tessa-core/core"
	"github.com/tesslearn/tessa-core/core/contents"
	"github.com/tesslearn/tessa-core/core/llms/gemini"
	"github.com/tesslearn/tessa-core/core/voicechannel/eleven"
	"github.com/tesslearn/tessa-core/tui"
)

func main() {
	godotenv.Load()

	agentID := flag.String("agent-id", "", "ElevenLabs agent id (defaults to ELEVENLABS_AGENT_ID)")
	model := flag.String("model", gemini.DefaultModel, "Gemini model for typed exchanges")
	contentsDir := flag.String("contents", "contents", "directory of learner and module .txt blobs")
	learnerID := flag.String("learner", "", "learner blob id from the contents directory")
	moduleID := flag.String("module", "", "module blob id from the contents directory")
	maxTokens := flag.Int("max-tokens", 0, "cap on typed response tokens, 0 for provider default")
	flag.Parse()

	voice, err := eleven.NewConversationClient(*agentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up voice channel: %v\n", err)
		os.Exit(1)
	}

	llm, err := gemini.NewClient(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up completion client: %v\n", err)
		os.Exit(1)
	}

	store, err := contents.LoadDir(*contentsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load contents: %v\n", err)
		os.Exit(1)
	}

	events := make(chan tea.Msg, 64)
	sessionOpts := append([]tutoring.SessionOption{
		tutoring.WithVoiceChannel(voice),
		tutoring.WithStreamingLLM(llm),
		tutoring.WithContentStore(store),
		tutoring.WithMaxResponseTokens(*maxTokens),
	}, tui.Callbacks(events)...)
	session := tutoring.NewSession(sessionOpts...)

	program := tea.NewProgram(
		tui.New(session, events,
			tutoring.WithLearner(*learnerID),
			tutoring.WithModule(*moduleID),
		),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tessa exited with error: %v\n", err)
		os.Exit(1)
	}
}
