// Package main computes the average of a list of grades.
package main

import (
	"fmt"
	"os"
)

// maxGrade is the highest grade a student can get.
const maxGrade = 20

var grades []float64

// readGrades loads the grades given on the command line.
func readGrades(args []string) {
	for _, a := range args {
		var g float64
		fmt.Sscan(a, &g)
		grades = append(grades, g)
	}
}

func average() float64 {
	sum := 0.0
	count := 0
	for i := 0; i < len(grades); i++ {
		if grades[i] > maxGrade {
			continue
		} else if grades[i] < 0 {
			continue
		}
		sum += grades[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// printAverage shows the result scaled to a thirty point range.
func printAverage() {
	readGrades(os.Args[1:])
	avg := average()
	fmt.Printf("%.2f\n", avg*1.5)

	// nothing else to report
}
