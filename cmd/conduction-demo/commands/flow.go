package commands

import (
	"fmt"

	"github.com/Amund211/conduction/flow"
	"github.com/spf13/cobra"
)

var flowCmd = &cobra.Command{
	Use:   "flow STEP [STEP...]",
	Short: "Walk a step flow forward and back",
	Long: `Flow drives the step flow coordinator across the given steps: it begins
with the first step, advances through the rest, simulates the platform
popping the top step, then finishes the flow.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFlow,
}

func init() {
	rootCmd.AddCommand(flowCmd)
}

type demoStep string

func (s demoStep) FlowStepID() string { return string(s) }

// printingStack prints stack mutations the way a navigation binding would
// apply them.
type printingStack struct{}

func (printingStack) Push(step flow.Step)  { printStep("push %s", step.FlowStepID()) }
func (printingStack) PopTo(step flow.Step) { printStep("pop to %s", step.FlowStepID()) }
func (printingStack) PopAll()              { printStep("pop all") }

type printingDelegate struct{}

func (printingDelegate) FlowDidAdvance(from, to flow.Step) {
	if from == nil {
		printSuccess("advanced to %s", to.FlowStepID())
		return
	}
	printSuccess("advanced %s -> %s", from.FlowStepID(), to.FlowStepID())
}

func (printingDelegate) FlowDidReturn(to flow.Step) {
	printSuccess("returned to %s", to.FlowStepID())
}

func (printingDelegate) FlowDidFinish(completed bool) {
	if completed {
		printSuccess("flow finished")
		return
	}
	printWarning("flow cancelled")
}

func runFlow(cmd *cobra.Command, args []string) error {
	_, logger, cleanup, err := setupRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	coordinator, err := flow.NewCoordinator(
		printingStack{},
		flow.WithDelegate(printingDelegate{}),
		flow.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	steps := make([]demoStep, 0, len(args))
	for _, arg := range args {
		steps = append(steps, demoStep(arg))
	}

	if err := coordinator.Begin(steps[0]); err != nil {
		return fmt.Errorf("failed to begin flow: %w", err)
	}
	for _, step := range steps[1:] {
		if err := coordinator.Advance(step); err != nil {
			return fmt.Errorf("failed to advance to %s: %w", step.FlowStepID(), err)
		}
	}

	if len(steps) > 1 {
		// Simulate the platform popping the top step behind our back,
		// e.g. a back gesture.
		last := steps[len(steps)-1]
		printStep("platform popped %s", last)
		coordinator.StackDidPop(last)
	}

	if current, ok := coordinator.Current(); ok {
		printStep("current step: %s (depth %d)", current.FlowStepID(), coordinator.Depth())
	}

	if err := coordinator.Finish(); err != nil {
		return fmt.Errorf("failed to finish flow: %w", err)
	}

	return nil
}
