package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
)

func (a *App) plans() (*syncer.Plans, bool) {
	s := a.current()
	if s == nil || s.Plans == nil {
		fmt.Fprintln(a.out, "Plans are available to tourists only")
		return nil, false
	}
	return s.Plans, true
}

// Plans dispatches the plan subcommands.
func (a *App) Plans(ctx context.Context, args []string) error {
	plans, ok := a.plans()
	if !ok {
		return nil
	}

	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		list := plans.List()
		if len(list) == 0 {
			fmt.Fprintln(a.out, "No plans yet")
		}
		for _, p := range list {
			fmt.Fprintf(a.out, "%-24s %-28s %s .. %s  %d place(s)\n",
				p.ID, p.Name, p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout), len(p.Places))
		}
		return nil

	case "show":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: plan show <id>")
			return nil
		}
		p, ok := plans.Get(rest[0])
		if !ok {
			fmt.Fprintln(a.out, "Plan not found")
			return nil
		}
		a.printPlan(p)
		return nil

	case "new":
		p, err := a.askPlan()
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		if err := a.validate.Plan(p); err != nil {
			a.report("Plan not saved", err)
			return err
		}
		if err := a.checkPlaces(p.Places); err != nil {
			a.report("Plan not saved", err)
			return err
		}
		created, err := plans.Create(ctx, p)
		if err != nil {
			a.report("Plan not saved", err)
			return err
		}
		fmt.Fprintf(a.out, "Plan %s created\n", created.ID)
		return nil

	case "edit":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: plan edit <id>")
			return nil
		}
		current, ok := plans.Get(rest[0])
		if !ok {
			fmt.Fprintln(a.out, "Plan not found")
			return nil
		}
		patch, err := a.askPlanPatch(current)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		if patch.Empty() {
			fmt.Fprintln(a.out, "Nothing changed")
			return nil
		}
		if err := a.validate.PlanPatch(current, patch); err != nil {
			a.report("Plan not updated", err)
			return err
		}
		if err := a.checkPlaces(patch.Places); err != nil {
			a.report("Plan not updated", err)
			return err
		}
		if err := plans.Update(ctx, current.ID, patch); err != nil {
			a.report("Plan not updated", err)
			return err
		}
		fmt.Fprintln(a.out, "Plan updated")
		return nil

	case "rm":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: plan rm <id>")
			return nil
		}
		if err := plans.Delete(ctx, rest[0]); err != nil {
			a.report("Plan not deleted", err)
			return err
		}
		fmt.Fprintln(a.out, "Plan deleted")
		return nil

	default:
		fmt.Fprintln(a.out, "Usage: plan [list|show|new|edit|rm]")
		return nil
	}
}

func (a *App) printPlan(p models.Plan) {
	fmt.Fprintf(a.out, "%s\n  from %s to %s\n  places: %s\n  offline: %t\n",
		p.Name, p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout),
		strings.Join(p.Places, ", "), p.Offline)
}

func (a *App) askPlan() (models.Plan, error) {
	name, err := getSimpleText(a.reader, "Plan name", a.out)
	if err != nil {
		return models.Plan{}, err
	}
	start, err := GetDate(a.reader, "Start date", a.out)
	if err != nil {
		return models.Plan{}, err
	}
	end, err := GetDate(a.reader, "End date", a.out)
	if err != nil {
		return models.Plan{}, err
	}
	places, err := getSimpleText(a.reader, "Place ids, comma separated", a.out)
	if err != nil {
		return models.Plan{}, err
	}
	offline, err := GetYesNo(a.reader, "Keep available offline?", false, a.out)
	if err != nil {
		return models.Plan{}, err
	}
	return models.Plan{
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Places:    models.ParseList(places),
		Offline:   offline,
	}, nil
}

// askPlanPatch prompts for every field; empty answers keep the current value.
func (a *App) askPlanPatch(cur models.Plan) (models.PlanPatch, error) {
	var patch models.PlanPatch

	name, err := getSimpleText(a.reader, fmt.Sprintf("Plan name [%s]", cur.Name), a.out)
	if err != nil {
		return patch, err
	}
	if name != "" && name != cur.Name {
		patch.Name = &name
	}

	for _, f := range []struct {
		prompt string
		cur    time.Time
		dst    **time.Time
	}{
		{"Start date", cur.StartDate, &patch.StartDate},
		{"End date", cur.EndDate, &patch.EndDate},
	} {
		s, err := getSimpleText(a.reader, fmt.Sprintf("%s (YYYY-MM-DD) [%s]", f.prompt, f.cur.Format(dateLayout)), a.out)
		if err != nil {
			return patch, err
		}
		if s == "" {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return patch, err
		}
		if !d.Equal(f.cur) {
			*f.dst = &d
		}
	}

	places, err := getSimpleText(a.reader, fmt.Sprintf("Place ids [%s]", strings.Join(cur.Places, ",")), a.out)
	if err != nil {
		return patch, err
	}
	if places != "" {
		patch.Places = models.ParseList(places)
	}

	offline, err := GetYesNo(a.reader, "Keep available offline?", cur.Offline, a.out)
	if err != nil {
		return patch, err
	}
	if offline != cur.Offline {
		patch.Offline = &offline
	}
	return patch, nil
}
