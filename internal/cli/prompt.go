package cli

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"

	"relocate/internal/relocate"
	"relocate/internal/services"
)

// Replacement groups offered by the interactive selection.
const (
	partOptions     = "Options"
	partAttachments = "Attachment URLs"
	partContent     = "URLs in post content"
)

var errInvalidSiteURL = errors.New("must be an http(s) URL without a query string")

type prompter interface {
	// NewURL asks for the URL the site moves to.
	NewURL() (string, error)
	// Parts asks which groups to run replacement on.
	Parts() (options, attachments, content bool, err error)
	// Confirm asks a yes/no question.
	Confirm(message string) (bool, error)
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type terminalPrompter struct{}

func (terminalPrompter) NewURL() (string, error) {
	prompt := promptui.Prompt{
		Label: "New site URL",
		Validate: func(s string) error {
			if !relocate.IsValidSiteURL(services.NormalizeURL(s)) {
				return errInvalidSiteURL
			}
			return nil
		},
	}
	return prompt.Run()
}

func (terminalPrompter) Parts() (bool, bool, bool, error) {
	all := []string{partOptions, partAttachments, partContent}
	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Run replacement on (running all groups at once is strongly recommended):",
		Options: all,
		Default: all,
	}
	if err := survey.AskOne(prompt, &selected, survey.WithValidator(survey.Required)); err != nil {
		return false, false, false, err
	}

	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	return chosen[partOptions], chosen[partAttachments], chosen[partContent], nil
}

func (terminalPrompter) Confirm(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, err
}
