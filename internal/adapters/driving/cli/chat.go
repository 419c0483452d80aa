package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

var chatStyle string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Converse with the indexed corpus",
	Long: `Starts an interactive session. Each turn retrieves passages for
the latest question; citation numbers continue across turns, so [3] in
the second answer still refers to the third source shown overall.
Type "exit" or press Ctrl-D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatStyle, "style", "", "citation style: mla, apa or chicago")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	style, err := citationStyle(chatStyle)
	if err != nil {
		return err
	}
	if err := ensureQueryService(style, queryTopK); err != nil {
		return err
	}
	defer closeStores(cmd)

	cmd.Println("wikidex chat. Type a question, or \"exit\" to leave.")

	conv := domain.Conversation{}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		conv.Messages = append(conv.Messages, domain.Message{
			Role:    domain.RoleUser,
			Content: line,
		})

		reply, err := streamTurn(cmd, conv)
		if err != nil {
			return err
		}
		conv.Messages = append(conv.Messages, reply)
	}
}

// streamTurn streams one assistant turn to the terminal and returns the
// assembled message for the conversation history.
func streamTurn(cmd *cobra.Command, conv domain.Conversation) (domain.Message, error) {
	out, errs := queryService.ConverseStream(cmd.Context(), conv)

	var (
		content strings.Builder
		sources []domain.Source
	)
	for m := range out {
		switch {
		case m.Source != nil:
			sources = append(sources, *m.Source)
		case m.Done:
		default:
			cmd.Print(m.Content)
			content.WriteString(m.Content)
		}
	}
	if err := <-errs; err != nil {
		return domain.Message{}, fmt.Errorf("chat turn failed: %w", err)
	}

	cmd.Println()
	printSources(cmd, sources)
	cmd.Println()

	return domain.Message{
		Role:    domain.RoleAssistant,
		Content: content.String(),
		Sources: sources,
	}, nil
}
