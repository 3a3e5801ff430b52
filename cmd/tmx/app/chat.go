package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
)

// ChatOptions holds options for the chat command
type ChatOptions struct {
	*GlobalOptions

	// GradioURL is the base URL of the Gradio web application.
	GradioURL string

	// Language is the starting conversation language.
	Language string
}

// NewChatCommand creates the chat command.
//
// The chat command opens an interactive text session against a running
// deployment's Gradio endpoints. Inside the session, "quit" exits,
// "clear" clears the conversation memory, and "lang" toggles between
// English and Chinese.
//
// Usage:
//
//	tmx chat [--url URL] [--lang LANGUAGE]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for the interactive chat session
func NewChatCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ChatOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively with a running deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(opts)
		},
	}

	cmd.Flags().StringVar(&opts.GradioURL, "url",
		fmt.Sprintf("http://localhost:%d", config.DefaultWebPort),
		"Gradio web application URL")
	cmd.Flags().StringVar(&opts.Language, "lang", "English",
		"conversation language (English or Chinese)")

	return cmd
}

// runChat executes the chat command logic
func runChat(opts *ChatOptions) error {
	c := client.NewGradioClient(opts.GradioURL)

	fmt.Printf("Connecting to %s...\n", opts.GradioURL)
	if err := c.CheckConnection(); err != nil {
		return fmt.Errorf("failed to connect: %w (is the deployment running? try: tmx up)", err)
	}
	fmt.Println("Connected successfully!")
	fmt.Println()
	fmt.Println("Type 'quit' to exit, 'clear' to clear history, 'lang' to switch language")
	fmt.Println(strings.Repeat("-", 40))

	lang := opts.Language
	var history [][]string

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			fmt.Println("\nExiting...")
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit":
			fmt.Println("Goodbye!")
			return nil
		case "clear":
			history = nil
			if err := c.ClearMemory(); err != nil {
				fmt.Printf("Failed to clear memory: %v\n", err)
				continue
			}
			fmt.Println("Conversation history cleared.")
			continue
		case "lang":
			if lang == "English" {
				lang = "Chinese"
			} else {
				lang = "English"
			}
			fmt.Printf("Language switched to: %s\n", lang)
			continue
		}

		resp, err := c.RunText(input, history, lang)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		reply := renderReply(resp.Data)
		fmt.Printf("\nAssistant (%s): %s\n", lang, reply)
		history = append(history, []string{input, reply})
	}
	return scanner.Err()
}

// renderReply extracts a printable reply from the Gradio response data.
// The run_text function returns the updated chatbot state as its first
// value; the last turn's assistant message is the reply.
func renderReply(data []interface{}) string {
	if len(data) == 0 {
		return "(no response)"
	}
	turns, ok := data[0].([]interface{})
	if !ok || len(turns) == 0 {
		return fmt.Sprintf("%v", data[0])
	}
	last, ok := turns[len(turns)-1].([]interface{})
	if !ok || len(last) < 2 {
		return fmt.Sprintf("%v", turns[len(turns)-1])
	}
	return fmt.Sprintf("%v", last[1])
}
