/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/dancespiele/pyrite-server/dsl"
	"github.com/spf13/cobra"
)

func newRoutesCommand() *cobra.Command {
	var routesFile string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of a route file",
		Long: `Routes prints one "ACTION /path" line per method. Without -f the
builtin system routes are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := dsl.Parse([]byte(systemRoutes))
			if routesFile != "" {
				def, err = dsl.Load(routesFile)
			}
			if err != nil {
				return fmt.Errorf("failed to load routes: %w", err)
			}
			for _, line := range def.Routes() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&routesFile, "file", "f", "", "route file, yaml or json")
	return cmd
}
