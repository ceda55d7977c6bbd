package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatbot-server/internal/config"
	"chatbot-server/internal/domain"
	"chatbot-server/internal/llm"
	"chatbot-server/internal/repository"
	"chatbot-server/internal/service"
)

// cliIdentity identifica los exchanges creados desde consola en los logs.
var cliIdentity = domain.Identity{UserID: "cli", Email: "cli@localhost", Role: "local"}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	store, err := repository.OpenMessageStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMSystemPrompt, logger)
	msgSvc := service.NewMessageService(logger, store.Messages, llmClient, nil)

	fmt.Println("---- Modo Chat (escribe /help para ver comandos, 'salir' para terminar) ----")
	if err := runREPL(ctx, bufio.NewReader(os.Stdin), os.Stdout, msgSvc); err != nil {
		log.Fatal(err)
	}
}

func runREPL(ctx context.Context, reader *bufio.Reader, out io.Writer, msgSvc *service.MessageService) error {
	for {
		fmt.Fprint(out, "Tu > ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("leer input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		quit, cmdErr := runCommand(ctx, msgSvc, strings.TrimSpace(line), out)
		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", cmdErr)
		}
		if quit || eof {
			return nil
		}
	}
}

// runCommand interpreta una línea: texto libre crea un exchange, "/" invoca un comando.
func runCommand(ctx context.Context, msgSvc *service.MessageService, line string, out io.Writer) (bool, error) {
	if line == "" {
		return false, nil
	}
	if strings.EqualFold(line, "salir") || strings.EqualFold(line, "exit") {
		fmt.Fprintln(out, "Saliendo del chat...")
		return true, nil
	}
	if !strings.HasPrefix(line, "/") {
		ex, err := msgSvc.CreateExchange(ctx, cliIdentity, line)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "[%d] Bot > %s\n", ex.Chatbot.ID, ex.Chatbot.Content)
		return false, nil
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	switch strings.ToLower(cmd) {
	case "help":
		fmt.Fprintln(out, "/list [after]      lista mensajes")
		fmt.Fprintln(out, "/show <id>         muestra un mensaje")
		fmt.Fprintln(out, "/edit <id> <texto> reemplaza el contenido")
		fmt.Fprintln(out, "/delete <id>       borra un mensaje")
		return false, nil
	case "list":
		var opts repository.ListOptions
		if rest = strings.TrimSpace(rest); rest != "" {
			after, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return false, fmt.Errorf("id invalido: %q", rest)
			}
			opts.AfterID = after
		}
		msgs, err := msgSvc.ListMessages(ctx, opts)
		if err != nil {
			return false, err
		}
		for _, m := range msgs {
			printMessage(out, m)
		}
		return false, nil
	case "show":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		m, err := msgSvc.GetMessage(ctx, id)
		if err != nil {
			return false, err
		}
		printMessage(out, m)
		return false, nil
	case "edit":
		rawID, content, _ := strings.Cut(strings.TrimSpace(rest), " ")
		id, err := parseID(rawID)
		if err != nil {
			return false, err
		}
		m, err := msgSvc.UpdateMessage(ctx, id, content)
		if err != nil {
			return false, err
		}
		printMessage(out, m)
		return false, nil
	case "delete":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		if err := msgSvc.DeleteMessage(ctx, id); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "mensaje %d borrado\n", id)
		return false, nil
	default:
		return false, fmt.Errorf("comando desconocido: /%s", cmd)
	}
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id invalido: %q", raw)
	}
	return id, nil
}

func printMessage(out io.Writer, m domain.Message) {
	fmt.Fprintf(out, "[%d] %s: %s\n", m.ID, m.Author, m.Content)
}
