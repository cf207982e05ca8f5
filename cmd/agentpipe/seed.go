package main

import (
	"fmt"

	"github.com/hupe1980/agentpipe"
	"github.com/hupe1980/agentpipe/catalog"
	"github.com/hupe1980/agentpipe/core"
)

// seedCatalog registers a small actor/critic demo pipeline so a fresh
// server can be exercised without any catalog tooling.
func seedCatalog(pipe *agentpipe.AgentPipe) error {
	store, ok := pipe.Catalog().(*catalog.InMemoryStore)
	if !ok {
		return fmt.Errorf("demo seeding requires the in-memory catalog")
	}

	actor, err := store.PutAgent(core.AgentDefinition{
		Name:         "Requirement Extractor",
		Role:         core.RoleActor,
		ModelName:    "gpt-4o",
		Temperature:  0.3,
		MaxTokens:    2048,
		SystemPrompt: "You extract testable requirements from document sections.",
		UserPromptTemplate: "Extract the testable requirements from the following section.\n\n" +
			"Section: {{.section_title}}\n\n{{.section_content}}\n\nContext:\n{{.rag_context}}",
		Active: true,
	})
	if err != nil {
		return err
	}

	critic, err := store.PutAgent(core.AgentDefinition{
		Name:         "Requirement Synthesizer",
		Role:         core.RoleCritic,
		ModelName:    "gpt-4o",
		Temperature:  0.2,
		MaxTokens:    2048,
		SystemPrompt: "You synthesize and deduplicate requirement lists.",
		UserPromptTemplate: "Consolidate the following requirement analyses into a single " +
			"deduplicated list.\n\n{{.actor_output}}",
		Active: true,
	})
	if err != nil {
		return err
	}

	_, err = store.PutAgentSet(core.AgentSet{
		Name:        "Requirement Analysis",
		Description: "Three parallel extractors refined by a synthesizing critic",
		SetType:     core.SetTypeSequence,
		Stages: []core.Stage{
			{
				Name:          "actor",
				AgentIDs:      []string{actor.ID, actor.ID, actor.ID},
				ExecutionMode: core.ModeParallel,
			},
			{
				Name:          "critic",
				AgentIDs:      []string{critic.ID},
				ExecutionMode: core.ModeSequential,
			},
		},
		Active:  true,
		Default: true,
	})
	return err
}
