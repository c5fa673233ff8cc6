package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

var chatSources bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the support assistant",
	Long: `Answers a question from the embedded support documents.

Without a message, starts an interactive session that keeps the
conversation history. Enter an empty line or "exit" to quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatSources, "sources", false, "list the chunks the answer was grounded on")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return notConfigured("chat")
	}
	if len(args) > 0 {
		_, err := ask(cmd, strings.Join(args, " "), nil)
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	var history []domain.ChatTurn
	for {
		cmd.Print("> ")
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" || line == "exit" {
			return nil
		}

		answer, err := ask(cmd, line, history)
		if err != nil {
			return err
		}
		if answer != "" {
			history = append(history,
				domain.ChatTurn{Role: domain.RoleUser, Text: line},
				domain.ChatTurn{Role: domain.RoleAssistant, Text: answer},
			)
		}
		if readErr != nil {
			return nil
		}
	}
}

func ask(cmd *cobra.Command, message string, history []domain.ChatTurn) (string, error) {
	reply, err := chatService.Chat(cmd.Context(), message, history)
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}
	if reply.Error != "" {
		cmd.Printf("Error: %s\n", reply.Error)
		return "", nil
	}

	cmd.Println(reply.Answer)
	if chatSources && len(reply.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range reply.Sources {
			cmd.Printf("  %s chunk %s (%.2f)\n", s.DocumentID, s.ChunkID, s.Similarity)
		}
	}
	return reply.Answer, nil
}
